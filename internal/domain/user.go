package domain

// User is the signed-in identity returned by login and signup.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResult is the response of /auth/login and /auth/signup.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Address is the postal address kept on a profile.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// Profile is the editable account profile.
type Profile struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	DateOfBirth    string  `json:"dateOfBirth"`
	Bio            string  `json:"bio"`
	ProfilePicture string  `json:"profilePicture"`
	Address        Address `json:"address"`
}
