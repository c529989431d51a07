// Package tier segments a completed buyer profile into one of three
// pricing tiers and carries the package metadata shown to the user.
package tier

// Tier is an ordinal pricing segment.
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
)

// AllTiers returns the tiers in ascending price order.
func AllTiers() []Tier {
	return []Tier{TierA, TierB, TierC}
}

// ValidTier reports whether s names a known tier.
func ValidTier(s string) bool {
	switch Tier(s) {
	case TierA, TierB, TierC:
		return true
	}
	return false
}

// Budget boundaries between tiers, in the configured currency.
const (
	TierAFloor   = 7_000_000
	TierBFloor   = 9_000_000
	TierCFloor   = 11_000_000
	currencyName = "TL"
)

// Package describes what a tier offers, in the language shown to users.
type Package struct {
	Tier        Tier     `json:"tier"`
	Name        string   `json:"name"`
	BudgetRange string   `json:"budget_range"`
	Focus       string   `json:"focus"`
	Pros        []string `json:"pros"`
	Cons        []string `json:"cons"`
}

var packages = map[Tier]Package{
	TierA: {
		Tier:        TierA,
		Name:        "Giriş Paketi",
		BudgetRange: "9.000.000 TL altı",
		Focus:       "Uygun fiyatlı, yatırım değeri yüksek başlangıç daireleri",
		Pros: []string{
			"Düşük giriş maliyeti",
			"Yüksek kiralama talebi",
			"Esnek ödeme planları",
		},
		Cons: []string{
			"Daha küçük metrekare seçenekleri",
			"Sosyal olanaklar sınırlı olabilir",
		},
	},
	TierB: {
		Tier:        TierB,
		Name:        "Konfor Paketi",
		BudgetRange: "9.000.000 - 11.000.000 TL",
		Focus:       "Geniş aileler için sosyal olanaklı site içi konutlar",
		Pros: []string{
			"Geniş oda seçenekleri",
			"Havuz, spor salonu gibi site olanakları",
			"Dengeli fiyat/değer oranı",
		},
		Cons: []string{
			"Aidat maliyetleri",
			"Merkezi konumlarda stok sınırlı",
		},
	},
	TierC: {
		Tier:        TierC,
		Name:        "Prestij Paketi",
		BudgetRange: "11.000.000 TL ve üzeri",
		Focus:       "Premium konum ve mimariye sahip özel projeler",
		Pros: []string{
			"Prestijli konum",
			"Yüksek değer artışı potansiyeli",
			"Özel tasarım ve geniş yaşam alanları",
		},
		Cons: []string{
			"Yüksek giriş maliyeti",
			"Sınırlı sayıda ünite",
		},
	},
}

var motivations = map[Tier]string{
	TierA: "Bu bütçeyle değerini hızla artıran, kiraya vermesi kolay bir daireye sahip olabilirsiniz.",
	TierB: "Aileniz için hem konforlu hem de yatırım değeri güçlü bir seçenek yelpazesi sizi bekliyor.",
	TierC: "Bu segmentte aradığınız ayrıcalığı sunan, az bulunur projelere erişiminiz var.",
}

var hooks = map[Tier][]string{
	TierA: {
		"Şu an ön satış aşamasında olan projelerde ciddi fiyat avantajı var.",
		"Küçük bir farkla bir üst segmente geçiş de değerlendirilebilir.",
	},
	TierB: {
		"Site içi projelerde örnek daireleri birlikte gezebiliriz.",
		"Bu segmentte okullara yakın projeler aileler arasında çok tercih ediliyor.",
	},
	TierC: {
		"Size özel bir portföy sunumu hazırlayabiliriz.",
		"Bu projelerin bazıları henüz ilana çıkmadı, öncelikli erişim sağlayabiliriz.",
	},
}

// PackageFor returns the metadata for a tier.
func PackageFor(t Tier) Package {
	return packages[t]
}

// MotivationFor returns the one-line motivation text for a tier.
func MotivationFor(t Tier) string {
	return motivations[t]
}

// HooksFor returns the conversational follow-up hooks for a tier.
func HooksFor(t Tier) []string {
	return hooks[t]
}
