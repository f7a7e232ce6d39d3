package models

import "time"

// CookieRecord is a single browser cookie. JSON tags follow the layout
// written by Selenium's get_cookies so existing cookies.json files import as is.
type CookieRecord struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain,omitempty"`
	Path     string  `json:"path,omitempty"`
	Expiry   float64 `json:"expiry,omitempty"` // Unix seconds, 0 for session cookies
	Secure   bool    `json:"secure"`
	HTTPOnly bool    `json:"httpOnly"`
	SameSite string  `json:"sameSite,omitempty"` // "Strict", "Lax" or "None"
}

// CookieJar groups the cookies captured for one site domain
type CookieJar struct {
	Domain    string         `json:"domain"`
	Cookies   []CookieRecord `json:"cookies"`
	UpdatedAt time.Time      `json:"updated_at"`
}
