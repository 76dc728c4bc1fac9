package rental

type RentReq struct {
	BikeID int64 `json:"bike_id" validate:"required,gt=0"`
	Days   int   `json:"days" validate:"required,gte=1,lte=365"`
}

type ReturnReq struct {
	Comment   string `json:"comment" validate:"max=2000"`
	Condition string `json:"condition" validate:"required,max=255"`
}
