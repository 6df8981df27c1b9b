package dto

// CreateUserReq はユーザー登録リクエストのボディです。
// passwordのmaxは文字数で判定されるため、バイト長はユースケース層でも確認します。
type CreateUserReq struct {
	Username string `json:"username" binding:"required,max=20"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
}

// UpdateUserReq はユーザー更新リクエストのボディです。
// roleの値はユースケース層でUSER/ADMINに解析されます。
type UpdateUserReq struct {
	Username string `json:"username" binding:"required,max=20"`
	Email    string `json:"email" binding:"required,email"`
	Role     string `json:"role" binding:"required"`
}
