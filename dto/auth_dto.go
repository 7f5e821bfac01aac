package dto

type LoginDTO struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterDTO struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
	UserType string `json:"userType" binding:"required,oneof=customer tradesman"`

	// Tradesman-only fields.
	Trade      string  `json:"trade"`
	HourlyRate float64 `json:"hourlyRate"`
	Bio        string  `json:"bio"`

	// Customer-only fields.
	Postcode string `json:"postcode"`
	Phone    string `json:"phone"`
}

type ChangeMyPasswordDTO struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}
