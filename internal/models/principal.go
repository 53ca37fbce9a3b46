package models

// Principal аутентифицированный пользователь текущего запроса.
type Principal struct {
	UserUID  string `json:"user_uid"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsZero сообщает, что principal не заполнен.
func (p Principal) IsZero() bool {
	return p.UserUID == ""
}

// IsAdmin сообщает, что пользователь имеет роль администратора.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
