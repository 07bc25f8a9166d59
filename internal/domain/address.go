package domain

import (
	"fmt"
	"strings"
	"time"
)

type Address struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"userId"`
	Street    string    `bson:"street" json:"street"`
	City      string    `bson:"city" json:"city"`
	State     string    `bson:"state" json:"state"`
	Zip       string    `bson:"zip" json:"zip"`
	Country   string    `bson:"country" json:"country"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

func (a *Address) Validate() error {
	if strings.TrimSpace(a.Street) == "" || strings.TrimSpace(a.City) == "" || strings.TrimSpace(a.Country) == "" {
		return ErrInvalidAddress
	}
	return nil
}

// Flatten renders the address the way it is stored on orders: "street. city state, country".
func (a *Address) Flatten() string {
	return fmt.Sprintf("%s. %s %s, %s", a.Street, a.City, a.State, a.Country)
}
