package enums

// ProductCategories is the suggested category set offered by the catalog filter and admin form.
// Product.category stays free text, so values outside this list are accepted.
var ProductCategories = []string{
	"Electrical",
	"Electronics",
	"Lighting",
	"Appliances",
	"Wires & Cables",
}
