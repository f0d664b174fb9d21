package domain

// Category is one entry of the category sheet. The bot treats it as read-only
// reference data; only the seeding tool writes it.
type Category struct {
	CategoryID string
	Name       string
	Section    string // income | must | optional | reserve
	Order      int
	IsActive   bool
}

// CategoryColumns is the category sheet header, in sheet order (A:E).
var CategoryColumns = []string{"category_id", "name", "section", "order", "is_active"}

// DefaultCategories is written to an empty category sheet.
var DefaultCategories = []Category{
	{CategoryID: "income_salary", Name: "Salary", Section: "income", Order: 10, IsActive: true},
	{CategoryID: "income_other", Name: "Other income", Section: "income", Order: 20, IsActive: true},

	{CategoryID: "must_products", Name: "Groceries", Section: "must", Order: 10, IsActive: true},
	{CategoryID: "must_housing", Name: "Housing", Section: "must", Order: 20, IsActive: true},
	{CategoryID: "must_transport", Name: "Transport", Section: "must", Order: 30, IsActive: true},
	{CategoryID: "must_connection", Name: "Phone & internet", Section: "must", Order: 40, IsActive: true},
	{CategoryID: "must_medicine", Name: "Health", Section: "must", Order: 50, IsActive: true},

	{CategoryID: "opt_fun", Name: "Entertainment", Section: "optional", Order: 10, IsActive: true},
	{CategoryID: "opt_clothes", Name: "Clothes & shoes", Section: "optional", Order: 20, IsActive: true},
	{CategoryID: "opt_other", Name: "Other expenses", Section: "optional", Order: 90, IsActive: true},

	{CategoryID: "reserve_pillow", Name: "Safety cushion (10%)", Section: "reserve", Order: 10, IsActive: true},
}
