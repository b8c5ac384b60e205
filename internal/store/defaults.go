package store

import "tidytodo/backend"

// DefaultCategories returns fresh copies of the starter categories
func DefaultCategories() []backend.Category {
	return []backend.Category{
		{ID: backend.GenerateID(), Name: "Personal", Color: "#3b82f6", Icon: backend.Ptr("👤")},
		{ID: backend.GenerateID(), Name: "Work", Color: "#ef4444", Icon: backend.Ptr("💼")},
		{ID: backend.GenerateID(), Name: "Shopping", Color: "#10b981", Icon: backend.Ptr("🛒")},
	}
}
