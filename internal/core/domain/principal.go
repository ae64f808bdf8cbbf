package domain

// Principal is the identity decoded from a session token. It is never
// persisted.
type Principal struct {
	SubjectID string `json:"id"`
	ClinicID  string `json:"clinic_id"`
	Role      Role   `json:"role"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
}

// PrincipalFromUser builds the claim set for u.
func PrincipalFromUser(u *User) Principal {
	return Principal{
		SubjectID: u.ID,
		ClinicID:  u.ClinicID,
		Role:      u.Role,
		Email:     u.Email,
		FullName:  u.FullName,
	}
}
