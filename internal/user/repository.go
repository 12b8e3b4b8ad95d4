package user

import "gorm.io/gorm"

type Repository interface {
	CreateUser(user *User) error
	FindByID(id string) (*User, error)
	FindByCustomerCode(code string) (*User, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateUser(user *User) error {
	return r.db.Create(user).Error
}

func (r *repository) FindByID(id string) (*User, error) {
	var user User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) FindByCustomerCode(code string) (*User, error) {
	var user User
	if err := r.db.Where("customer_code = ?", code).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
