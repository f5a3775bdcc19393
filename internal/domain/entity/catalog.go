package entity

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var Categories = []Category{
	{ID: "electronics", Name: "Elektronik & Gadget"},
	{ID: "computer", Name: "Komputer & Laptop"},
	{ID: "phone", Name: "Handphone & Aksesoris"},
	{ID: "fashion", Name: "Fashion & Pakaian"},
	{ID: "beauty", Name: "Kesehatan & Kecantikan"},
	{ID: "food", Name: "Makanan & Minuman"},
	{ID: "home", Name: "Rumah Tangga"},
	{ID: "sport", Name: "Olahraga"},
	{ID: "automotive", Name: "Otomotif"},
	{ID: "toys", Name: "Mainan & Hobi"},
	{ID: "books", Name: "Buku & Alat Tulis"},
	{ID: "baby", Name: "Perlengkapan Bayi"},
	{ID: "jewelry", Name: "Jam & Perhiasan"},
	{ID: "property", Name: "Properti"},
	{ID: "office", Name: "Peralatan Kantor"},
	{ID: "other", Name: "Lainnya"},
}

const UnknownCategoryName = "Kategori Tidak Ditemukan"

func IsCategory(id string) bool {
	for _, c := range Categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

func CategoryName(id string) string {
	for _, c := range Categories {
		if c.ID == id {
			return c.Name
		}
	}
	return UnknownCategoryName
}

type District struct {
	Name         string   `json:"name"`
	Subdistricts []string `json:"subdistricts"`
}

// Districts of Batam and their subdistricts (kelurahan).
var Districts = []District{
	{Name: "Batam Kota", Subdistricts: []string{"Baloi Permai", "Belian", "Sukajadi", "Teluk Tering", "Taman Baloi"}},
	{Name: "Batu Ampar", Subdistricts: []string{"Batu Merah", "Kampung Seraya", "Sungai Jodoh", "Tanjung Sengkuang"}},
	{Name: "Bengkong", Subdistricts: []string{"Bengkong Indah", "Bengkong Laut", "Sadai", "Tanjung Buntung"}},
	{Name: "Lubuk Baja", Subdistricts: []string{"Batu Selicin", "Kampung Pelita", "Lubuk Baja Kota", "Tanjung Uma"}},
	{Name: "Nongsa", Subdistricts: []string{"Batu Besar", "Kabil", "Ngenang", "Sambau"}},
	{Name: "Sagulung", Subdistricts: []string{"Sagulung Kota", "Sungai Binti", "Sungai Langkai", "Sungai Lekop", "Tembesi"}},
	{Name: "Sei Beduk", Subdistricts: []string{"Duriangkang", "Mangsang", "Muka Kuning", "Tanjung Piayu"}},
	{Name: "Sekupang", Subdistricts: []string{"Patam Lestari", "Sungai Harapan", "Tanjung Pinggir", "Tanjung Riau", "Tiban Baru", "Tiban Lama"}},
	{Name: "Bulang", Subdistricts: []string{"Bulang Lintang", "Pantai Gelam", "Pulau Buluh", "Setokok", "Temoyong"}},
	{Name: "Galang", Subdistricts: []string{"Air Raja", "Galang Baru", "Karas", "Pulau Abang", "Rempang Cate", "Sembulang"}},
	{Name: "Belakang Padang", Subdistricts: []string{"Kasu", "Pemping", "Pecong", "Pulau Terong", "Tanjung Sari", "Sekanak Raya"}},
}

// IsValidLocation reports whether subdistrict belongs to district.
func IsValidLocation(district, subdistrict string) bool {
	for _, d := range Districts {
		if d.Name != district {
			continue
		}
		for _, s := range d.Subdistricts {
			if s == subdistrict {
				return true
			}
		}
		return false
	}
	return false
}

type ShippingMethod struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Cost        int64  `json:"cost"`
	Description string `json:"description"`
}

var ShippingMethods = []ShippingMethod{
	{ID: "kurirda", Name: "Kurirda", Cost: 10000, Description: "Pengiriman dalam area Batam"},
	{ID: "meetup", Name: "Cek di lokasi", Cost: 0, Description: "Saling Jumpa di lokasi kesepakatan"},
}

func FindShippingMethod(id string) (ShippingMethod, bool) {
	for _, m := range ShippingMethods {
		if m.ID == id {
			return m, true
		}
	}
	return ShippingMethod{}, false
}

type PaymentMethod struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Providers []string `json:"providers,omitempty"`
}

var PaymentMethods = []PaymentMethod{
	{ID: "cod", Name: "Bayar di Tempat (COD)"},
	{ID: "transfer", Name: "Transfer Bank", Providers: []string{"BCA", "BNI", "Mandiri"}},
	{ID: "ewallet", Name: "E-Wallet", Providers: []string{"GoPay", "OVO", "DANA"}},
}

func IsPaymentMethod(id string) bool {
	for _, m := range PaymentMethods {
		if m.ID == id {
			return true
		}
	}
	return false
}
