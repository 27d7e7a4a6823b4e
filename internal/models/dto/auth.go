package dto

type SignUpRequest struct {
	Identity  string `json:"identity"`
	Secret    string `json:"secret"`
	Role      string `json:"role"`
	Recommend string `json:"recommend,omitempty"`
}

type LoginRequest struct {
	Identity string `json:"identity"`
	Secret   string `json:"secret"`
}

type LoginResponse struct {
	Token string `json:"token"`
}
