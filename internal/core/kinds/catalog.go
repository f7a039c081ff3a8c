package kinds

import (
	"github.com/JonMunkholm/detailflow/internal/core"
	"github.com/JonMunkholm/detailflow/internal/store"
)

func registerTestimonials() {
	register(core.KindInfo{
		Key:         "testimonials",
		Label:       "Testimonials",
		Description: "Customer reviews shown on the public booking page",
	}, []field{
		{"name", "Name", store.ColumnText, true},
		{"content", "Review", store.ColumnText, true},
		{"rating", "Rating", store.ColumnInteger, false},
		{"vehicle", "Vehicle", store.ColumnText, false},
		{"service_date", "Service Date", store.ColumnDate, false},
	})
}

func registerServices() {
	register(core.KindInfo{
		Key:         "services",
		Label:       "Services",
		Description: "Detailing packages and their prices",
	}, []field{
		{"name", "Name", store.ColumnText, true},
		{"description", "Description", store.ColumnText, false},
		{"price", "Price", store.ColumnNumeric, false},
		{"duration_minutes", "Duration (minutes)", store.ColumnInteger, false},
		{"category", "Category", store.ColumnText, false},
	})
}
