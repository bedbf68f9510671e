package model

// AssetCategories is the fixed set of asset categories, in display order.
var AssetCategories = []Option{
	{Label: "Fridge", Value: "fridge"},
	{Label: "Washing Machine", Value: "washing_machine"},
	{Label: "TV", Value: "tv"},
	{Label: "Air Conditioner", Value: "ac"},
	{Label: "Laptop", Value: "laptop"},
	{Label: "Mobile", Value: "mobile"},
	{Label: "Tablet/iPad/Kindle", Value: "tablet"},
	{Label: "Desktop", Value: "desktop"},
	{Label: "Printer", Value: "printer"},
	{Label: "Camera", Value: "camera"},
	{Label: "Projector", Value: "projector"},
	{Label: "Speaker", Value: "speaker"},
	{Label: "Headphones", Value: "headphones"},
	{Label: "Gaming Console", Value: "gaming_console"},
	{Label: "Router", Value: "router"},
	{Label: "Smart Watch", Value: "smart_watch"},
	{Label: "Others", Value: "others"},
}

var categorySet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(AssetCategories))
	for _, c := range AssetCategories {
		set[c.Value] = struct{}{}
	}
	return set
}()

// IsAssetCategory reports whether code is a known category value.
func IsAssetCategory(code string) bool {
	_, ok := categorySet[code]
	return ok
}
