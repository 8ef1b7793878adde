package entity

import "time"

type Customer struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email,omitempty"`
	Phone             string    `json:"phone"`
	AddressLine1      string    `json:"address_line1"`
	AddressLine2      string    `json:"address_line2,omitempty"`
	City              string    `json:"city"`
	StateOrProvince   string    `json:"state_or_province,omitempty"`
	PostalCode        string    `json:"postal_code"`
	GoogleMapsPinLink string    `json:"google_maps_pin_link,omitempty"`
	JoinDate          string    `json:"join_date"`
	DateAdded         time.Time `json:"date_added"`
	LastUpdated       time.Time `json:"last_updated"`
}

// Snapshot copies the fields an order keeps for delivery.
func (c *Customer) Snapshot() CustomerSnapshot {
	return CustomerSnapshot{
		CustomerName:              c.Name,
		CustomerPhone:             c.Phone,
		CustomerAddressLine1:      c.AddressLine1,
		CustomerAddressLine2:      c.AddressLine2,
		CustomerCity:              c.City,
		CustomerPostalCode:        c.PostalCode,
		CustomerGoogleMapsPinLink: c.GoogleMapsPinLink,
	}
}
