package model

import "time"

// Role values stored in users.role. The set is closed: accounts are
// created as CUSTOMER or JOB_SEEKER and ADMIN is only ever assigned
// out of band.
const (
	RoleCustomer  = "CUSTOMER"
	RoleJobSeeker = "JOB_SEEKER"
	RoleAdmin     = "ADMIN"
)

// User represents an application user record as stored in the
// `users` table. Each field corresponds to a column in the
// database. Handlers define separate response types with JSON tags;
// the password hash never leaves the repository layer.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Name         – display name shown to chat peers.
//  Role         – role name (CUSTOMER, JOB_SEEKER or ADMIN).
//  ImagePath    – optional profile image path; empty when unset.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Name         string    // users.name
	Role         string    // users.role
	ImagePath    string    // users.image_path
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}
