package entity

import "time"

// User представляет пользователя платформы. Учётные записи создаются внешним
// слоем аутентификации, здесь хранится только то, что нужно челленджам.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Name      string    `gorm:"size:100;not null;default:''" json:"name"`
	Role      string    `gorm:"size:20;not null;default:'user'" json:"-"` // "user" или "admin"
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// IsAdmin сообщает, есть ли у пользователя права администратора
func (u *User) IsAdmin() bool {
	return u.Role == "admin"
}
