package dto

type RegisterRequestDTO struct {
	Email    string `json:"email" example:"budi@example.com"`
	Password string `json:"password" example:"rahasia123"`
	Name     string `json:"name" example:"Budi Santoso"`
}

type RegisterResponseDTO struct {
	Message string          `json:"message"`
	User    UserResponseDTO `json:"user"`
}

type LoginRequestDTO struct {
	Email    string `json:"email" example:"budi@example.com"`
	Password string `json:"password" example:"rahasia123"`
}

type GoogleLoginRequestDTO struct {
	IDToken string `json:"id_token"`
}

type LoginResponseDTO struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}
