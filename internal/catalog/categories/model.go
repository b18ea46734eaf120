package categories

type Category struct {
	ID   int64
	Name string
}

func (c *Category) toDTO() CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name}
}
