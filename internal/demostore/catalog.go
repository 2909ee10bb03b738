package demostore

// Product is one catalog entry. Price is in whole dollars, the only unit the
// storefront displays.
type Product struct {
	ID    int
	Name  string
	Price int
}

// DefaultCatalog mirrors the first page of the demoblaze catalog, in display
// order.
var DefaultCatalog = []Product{
	{ID: 1, Name: "Samsung galaxy s6", Price: 360},
	{ID: 2, Name: "Nokia lumia 1520", Price: 820},
	{ID: 3, Name: "Nexus 6", Price: 650},
	{ID: 4, Name: "Samsung galaxy s7", Price: 800},
	{ID: 5, Name: "Iphone 6 32gb", Price: 790},
	{ID: 6, Name: "Sony xperia z5", Price: 320},
	{ID: 7, Name: "HTC One M9", Price: 700},
	{ID: 8, Name: "Sony vaio i5", Price: 790},
	{ID: 9, Name: "Sony vaio i7", Price: 790},
}

func findProduct(catalog []Product, id int) (Product, bool) {
	for _, p := range catalog {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
