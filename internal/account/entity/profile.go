package entity

type Profile struct {
	ID             string
	Name           string
	Email          string
	Phone          string
	MarketingOptIn bool
}

// ProfileUpdate carries only the fields being changed.
type ProfileUpdate struct {
	Name           *string
	Phone          *string
	MarketingOptIn *bool
}

type Address struct {
	ID           string
	Alias        string
	Recipient    string
	Street       string
	Number       string
	Neighborhood string
	City         string
	State        string
	Zip          string
	Phone        string
	IsDefault    bool
}
