package dto

import (
	"everpack/internal/domain/catalogs/category"
)

// --- Request DTOs ---

// CreateCategoryRequest is the request body for creating a category.
type CreateCategoryRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	ParentID    *string `json:"parentId"`
	IsFolder    bool    `json:"isFolder"`
}

// ToEntity converts the request to a domain entity.
func (r *CreateCategoryRequest) ToEntity() *category.Category {
	c := category.New(r.Code, r.Name)
	c.Description = r.Description
	c.ParentID = r.ParentID
	c.IsFolder = r.IsFolder
	return c
}

// UpdateCategoryRequest is the request body for updating a category.
type UpdateCategoryRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	ParentID    *string `json:"parentId"`
	IsFolder    bool    `json:"isFolder"`
	Version     int     `json:"version" binding:"required,min=1"`
}

// ApplyTo applies the update onto an existing entity.
func (r *UpdateCategoryRequest) ApplyTo(c *category.Category) {
	if r.Code != "" {
		c.Code = r.Code
	}
	c.Name = r.Name
	c.Description = r.Description
	c.ParentID = r.ParentID
	c.IsFolder = r.IsFolder
	c.Version = r.Version
}

// --- Response DTOs ---

// CategoryResponse is the response body for a category.
type CategoryResponse struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	ParentID     *string `json:"parentId,omitempty"`
	IsFolder     bool    `json:"isFolder"`
	DeletionMark bool    `json:"deletionMark"`
	Version      int     `json:"version"`
}

// FromCategory creates a response DTO from a domain entity.
func FromCategory(c *category.Category) *CategoryResponse {
	return &CategoryResponse{
		ID:           c.ID.String(),
		Code:         c.Code,
		Name:         c.Name,
		Description:  c.Description,
		ParentID:     c.ParentID,
		IsFolder:     c.IsFolder,
		DeletionMark: c.DeletionMark,
		Version:      c.Version,
	}
}
