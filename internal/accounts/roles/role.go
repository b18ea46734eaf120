package roles

type Role struct {
	ID   int64
	Name string
}

type RoleRequest struct {
	Name string `json:"name" binding:"required"`
}

type RoleResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (r *Role) toDTO() RoleResponse {
	return RoleResponse{ID: r.ID, Name: r.Name}
}
