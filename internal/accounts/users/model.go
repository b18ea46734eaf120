package users

import "time"

// User は users テーブルの1行。Password はハッシュ済みの値を保持する
type User struct {
	ID        int64
	Username  string
	Password  string
	Email     string
	RoleID    int64
	CreatedAt time.Time
}

// パスワードはDTOに出さない
func (u *User) toDTO() UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		RoleID:    u.RoleID,
		CreatedAt: u.CreatedAt,
	}
}
