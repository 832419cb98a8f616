package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Group, kullanıcının üye olduğu çok üyeli sohbet.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateGroupRequest, yeni grup oluşturma isteği.
type CreateGroupRequest struct {
	Name string `json:"name"`
}

// Validate, grup adını kırpar ve uzunluğunu kontrol eder.
func (r *CreateGroupRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	nameLen := utf8.RuneCountInString(r.Name)

	if nameLen < 1 {
		return fmt.Errorf("group name is required")
	}
	if nameLen > 100 {
		return fmt.Errorf("group name must be at most 100 characters")
	}
	return nil
}
