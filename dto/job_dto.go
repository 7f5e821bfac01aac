package dto

type UpdateJobStatusDTO struct {
	Status string `json:"status" binding:"required,oneof=accepted in_progress pending_approval completed cancelled"`
}

type SubmitReviewDTO struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"required,min=10,max=2000"`
}
