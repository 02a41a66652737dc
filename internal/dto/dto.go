package dto

type CartItem struct {
	Name     string `json:"name"`
	Size     string `json:"size"`
	Quantity int64  `json:"quantity"`
}

type CheckoutRequest struct {
	Items []*CartItem `json:"items"`
}

type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
}

type InquiryRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Company       string `json:"company"`
	ExpectedUnits uint   `json:"expected_units"`
	Message       string `json:"message"`
}
