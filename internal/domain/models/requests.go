package models

// Requests for HTTP endpoints. Defined in domain for consistency and reuse.

// PredictRequest leaves code unchecked for presence so a missing code surfaces as ERR_MISSING_CODE.
type PredictRequest struct {
	Code  string `query:"code" json:"code" validate:"max=32"`
	Token string `query:"token" json:"token" validate:"omitempty,uuid"`
}

type EnqueueForecastRequest struct {
	Code string `query:"code" json:"code" validate:"max=32"`
}

type ProgressRequest struct {
	Token string `query:"token" json:"token" validate:"required,uuid"`
}

type HistoryRequest struct {
	Code  string `query:"code" json:"code" validate:"required,max=32"`
	Limit int    `query:"limit" json:"limit" default:"30" validate:"gte=1,lte=1000"`
}

type NewsRequest struct {
	Keyword   string `query:"keyword" json:"keyword" validate:"omitempty,max=64"`
	Sentiment string `query:"sentiment" json:"sentiment" validate:"omitempty,oneof=긍정 중립 부정"`
}

// RegisterRequest caps the password at bcrypt's 72 byte input limit.
type RegisterRequest struct {
	FullName string `json:"fullName" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Nickname string `json:"nickname" validate:"required,max=50"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}
