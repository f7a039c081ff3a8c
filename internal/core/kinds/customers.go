package kinds

import (
	"github.com/JonMunkholm/detailflow/internal/core"
	"github.com/JonMunkholm/detailflow/internal/store"
)

func registerCustomers() {
	register(core.KindInfo{
		Key:         "customers",
		Label:       "Customers",
		Description: "Client list exported from a booking tool or spreadsheet",
	}, []field{
		{"name", "Name", store.ColumnText, true},
		{"email", "Email", store.ColumnText, false},
		{"phone", "Phone", store.ColumnText, false},
		{"vehicle", "Vehicle", store.ColumnText, false},
		{"notes", "Notes", store.ColumnText, false},
		{"total_bookings", "Total Bookings", store.ColumnInteger, false},
		{"total_spent", "Total Spent", store.ColumnNumeric, false},
		{"last_service_date", "Last Service Date", store.ColumnDate, false},
	})
}
