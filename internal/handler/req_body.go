package handler

type RequestOTPBody struct {
	Contact string `json:"contact"`
	Purpose string `json:"purpose"`
}

type VerifyOTPBody struct {
	Contact    string `json:"contact"`
	Code       string `json:"code"`
	Purpose    string `json:"purpose"`
	RememberMe bool   `json:"remember_me"`
}

type VerifyPhoneTokenBody struct {
	IDToken    string `json:"id_token"`
	RememberMe bool   `json:"remember_me"`
}

type LoginBody struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type RegisterBody struct {
	Name     string `json:"name"`
	Contact  string `json:"contact"`
	Password string `json:"password"`
}

type ForgotPasswordBody struct {
	Contact string `json:"contact"`
}

type ResetPasswordBody struct {
	Contact     string `json:"contact"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type ChangePasswordBody struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
