package transport

type ParseRequest struct {
	Q string `form:"q" validate:"required,notblank,max=500"`
}

type GeocodeRequest struct {
	Q    string `form:"q" validate:"required,notblank,max=500"`
	City string `form:"city" validate:"omitempty,max=100"`
}

type StreetRequest struct {
	Q string `form:"q" validate:"required,notblank,max=500"`
}

type IntersectionRequest struct {
	A string `form:"a" validate:"required,notblank,max=200"`
	B string `form:"b" validate:"required,notblank,max=200"`
}

type SemiblockRequest struct {
	Street string `form:"street" validate:"required,notblank,max=500"`
	City   string `form:"city" validate:"omitempty,max=100"`
	State  string `form:"state" validate:"omitempty,max=50"`
}
