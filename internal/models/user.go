package models

import "time"

// Role identifies what an actor is allowed to do in the workflow.
type Role string

const (
	RoleLabAdmin      Role = "Lab Admin"
	RolePharmacyAdmin Role = "Pharmacy Admin"
	RoleApprover      Role = "Approver"
	RoleAccounts      Role = "Accounts"
)

// Department is the organizational unit an actor belongs to. Requisitions
// only ever originate from Lab or Pharmacy.
type Department string

const (
	DepartmentLab        Department = "Lab"
	DepartmentPharmacy   Department = "Pharmacy"
	DepartmentManagement Department = "Management"
	DepartmentFinance    Department = "Finance"
)

// User is an actor profile. The engine treats the profile handed to it as
// ground truth for the current call and never caches it.
type User struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Role       Role       `json:"role"`
	Department Department `json:"department"`
	CreatedAt  time.Time  `json:"created_at"`
}
