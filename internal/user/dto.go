package user

type ProfileResponse struct {
	Success bool     `json:"success"`
	User    *Profile `json:"user"`
}
