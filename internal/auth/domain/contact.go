package domain

import "time"

type Contact struct {
	ID        string
	Name      string
	Email     string
	Phone     string
	Subject   string
	Message   string
	IP        string
	CreatedAt time.Time
}
