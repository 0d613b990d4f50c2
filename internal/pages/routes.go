package pages

// APIRoutes is the table shown on the docs page.
var APIRoutes = []Route{
	{"POST", "/api/accounts/login", false},
	{"POST", "/api/accounts/logout", true},
	{"GET", "/api/me", true},
	{"GET", "/api/accounts", true},
	{"GET", "/api/accounts/:email", true},
	{"POST", "/api/accounts", true},
	{"PUT, PATCH", "/api/accounts/:email", true},
	{"DELETE", "/api/accounts/:email", true},
	{"GET", "/api/berths", false},
	{"GET", "/api/berths/:number", false},
	{"POST", "/api/berths", true},
	{"PUT", "/api/berths/:number", true},
	{"DELETE", "/api/berths/:number", true},
	{"GET", "/api/berths/:number/reservations", false},
	{"GET", "/api/berths/:number/reservations/:id", false},
	{"POST", "/api/berths/:number/reservations", true},
	{"PUT, PATCH", "/api/berths/:number/reservations/:id", true},
	{"DELETE", "/api/berths/:number/reservations/:id", true},
	{"GET", "/api/reservations", false},
	{"GET", "/api/reservations/:id", false},
}
