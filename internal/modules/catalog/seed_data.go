package catalog

import "github.com/aristath/outfitter/internal/domain"

type brandSeed struct {
	name      string
	tier      int
	styleTags []string
}

type templateSeed struct {
	name         string
	styleTags    []string
	occasionTags []string
}

type variantSeed struct {
	label     string
	styleTags []string
}

type priceRange struct {
	min, max int
}

var seedBrands = []brandSeed{
	{"Nike", 1, []string{"streetwear", "sport", "casual", "y2k"}},
	{"Adidas", 1, []string{"streetwear", "sport", "casual"}},
	{"Uniqlo", 1, []string{"minimal", "casual", "smart casual"}},
	{"COS", 1, []string{"minimal", "old money", "smart casual"}},
	{"Arket", 1, []string{"minimal", "casual", "smart casual"}},
	{"Levi's", 1, []string{"vintage", "streetwear", "casual"}},

	{"Acne Studios", 2, []string{"minimal", "avant-garde", "streetwear"}},
	{"A.P.C.", 2, []string{"minimal", "smart casual", "old money"}},
	{"Off-White", 2, []string{"streetwear", "luxury", "y2k"}},
	{"Jacquemus", 2, []string{"luxury", "minimal", "avant-garde"}},
	{"Ami Paris", 2, []string{"smart casual", "old money", "minimal"}},
	{"Represent", 2, []string{"streetwear", "grunge", "dark"}},

	{"Balenciaga", 3, []string{"luxury", "streetwear", "avant-garde"}},
	{"Prada", 3, []string{"luxury", "minimal", "techwear"}},
	{"Saint Laurent", 3, []string{"luxury", "goth", "dark"}},
	{"Dior", 3, []string{"luxury", "business", "smart casual"}},
	{"Gucci", 3, []string{"luxury", "vintage", "streetwear"}},
	{"Bottega Veneta", 3, []string{"luxury", "minimal", "avant-garde"}},
}

var seedPriceRanges = map[int]map[domain.Category]priceRange{
	1: {
		domain.CategoryTop:       {35, 130},
		domain.CategoryBottom:    {45, 160},
		domain.CategoryShoes:     {70, 230},
		domain.CategoryOuterwear: {95, 290},
		domain.CategoryAccessory: {20, 120},
	},
	2: {
		domain.CategoryTop:       {120, 460},
		domain.CategoryBottom:    {140, 520},
		domain.CategoryShoes:     {180, 700},
		domain.CategoryOuterwear: {260, 1100},
		domain.CategoryAccessory: {80, 380},
	},
	3: {
		domain.CategoryTop:       {320, 1900},
		domain.CategoryBottom:    {360, 2100},
		domain.CategoryShoes:     {420, 2400},
		domain.CategoryOuterwear: {700, 4600},
		domain.CategoryAccessory: {180, 1700},
	},
}

var seedTemplates = map[domain.Category][]templateSeed{
	domain.CategoryTop: {
		{"Boxy Tee", []string{"streetwear", "minimal", "casual"}, []string{"study", "walk", "travel", "party"}},
		{"Relaxed Hoodie", []string{"streetwear", "y2k", "casual"}, []string{"walk", "travel", "party"}},
		{"Long Sleeve Jersey", []string{"streetwear", "sport", "y2k"}, []string{"walk", "party", "event"}},
		{"Open Collar Shirt", []string{"minimal", "smart casual", "old money"}, []string{"office", "date", "event"}},
		{"Knit Polo", []string{"minimal", "old money", "smart casual"}, []string{"office", "date", "event"}},
		{"Utility Overshirt", []string{"techwear", "streetwear", "avant-garde"}, []string{"walk", "travel", "event"}},
	},
	domain.CategoryBottom: {
		{"Relaxed Denim", []string{"streetwear", "vintage", "casual"}, []string{"study", "walk", "travel"}},
		{"Wide Cargo Pants", []string{"streetwear", "techwear", "y2k"}, []string{"walk", "travel", "party"}},
		{"Tailored Trousers", []string{"minimal", "business", "old money"}, []string{"office", "date", "event"}},
		{"Straight Chinos", []string{"smart casual", "minimal", "casual"}, []string{"study", "office", "date"}},
		{"Track Pants", []string{"sport", "streetwear", "y2k"}, []string{"walk", "travel", "party"}},
		{"Baggy Shorts", []string{"streetwear", "y2k", "casual"}, []string{"study", "walk", "travel"}},
	},
	domain.CategoryShoes: {
		{"Court Sneaker", []string{"streetwear", "casual", "y2k"}, []string{"study", "walk", "date"}},
		{"Retro Runner", []string{"streetwear", "sport", "vintage"}, []string{"walk", "travel", "party"}},
		{"Tech Runner", []string{"techwear", "sport", "streetwear"}, []string{"walk", "travel", "event"}},
		{"Monochrome Leather Sneaker", []string{"minimal", "smart casual", "old money"}, []string{"office", "date", "event"}},
		{"Chunky Sneaker", []string{"y2k", "streetwear", "avant-garde"}, []string{"party", "walk", "event"}},
		{"Trail Sneaker", []string{"techwear", "casual", "streetwear"}, []string{"walk", "travel", "weekend"}},
	},
	domain.CategoryOuterwear: {
		{"Coach Jacket", []string{"streetwear", "casual", "minimal"}, []string{"walk", "study", "travel"}},
		{"Bomber Jacket", []string{"streetwear", "y2k", "goth"}, []string{"party", "walk", "event"}},
		{"Wool Coat", []string{"old money", "business", "minimal"}, []string{"office", "date", "event"}},
		{"Shell Jacket", []string{"techwear", "sport", "streetwear"}, []string{"walk", "travel", "weekend"}},
		{"Trucker Jacket", []string{"vintage", "streetwear", "casual"}, []string{"study", "walk", "travel"}},
		{"Puffer Jacket", []string{"streetwear", "minimal", "goth"}, []string{"walk", "party", "travel"}},
	},
	domain.CategoryAccessory: {
		{"Crossbody Bag", []string{"streetwear", "techwear", "casual"}, []string{"walk", "travel", "party"}},
		{"Baseball Cap", []string{"streetwear", "sport", "y2k"}, []string{"study", "walk", "travel"}},
		{"Leather Belt", []string{"smart casual", "business", "old money"}, []string{"office", "date", "event"}},
		{"Beanie", []string{"streetwear", "goth", "casual"}, []string{"walk", "travel", "weekend"}},
		{"Card Holder", []string{"minimal", "luxury", "business"}, []string{"office", "date", "event"}},
		{"Tote Bag", []string{"minimal", "streetwear", "smart casual"}, []string{"study", "travel", "walk"}},
	},
}

var seedVariants = map[domain.Category][]variantSeed{
	domain.CategoryTop: {
		{"Oversized", []string{"streetwear", "y2k"}},
		{"Tailored", []string{"smart casual", "business", "old money"}},
		{"Utility", []string{"techwear", "avant-garde"}},
		{"Washed", []string{"vintage", "streetwear"}},
		{"Monochrome", []string{"minimal", "goth"}},
	},
	domain.CategoryBottom: {
		{"Relaxed", []string{"streetwear", "casual"}},
		{"Tailored", []string{"old money", "business", "minimal"}},
		{"Utility", []string{"techwear", "streetwear"}},
		{"Vintage", []string{"vintage", "streetwear"}},
		{"Dark", []string{"goth", "minimal"}},
	},
	domain.CategoryShoes: {
		{"Low", []string{"streetwear", "casual"}},
		{"Premium", []string{"luxury", "smart casual"}},
		{"Performance", []string{"sport", "techwear"}},
		{"Retro", []string{"vintage", "streetwear", "y2k"}},
		{"Minimal", []string{"minimal", "smart casual"}},
	},
	domain.CategoryOuterwear: {
		{"Lightweight", []string{"minimal", "casual"}},
		{"Heavy", []string{"streetwear", "goth"}},
		{"Technical", []string{"techwear", "avant-garde"}},
		{"Tailored", []string{"old money", "business"}},
		{"Vintage", []string{"vintage", "streetwear"}},
	},
	domain.CategoryAccessory: {
		{"Core", []string{"minimal", "casual"}},
		{"Statement", []string{"luxury", "avant-garde"}},
		{"Utility", []string{"techwear", "streetwear"}},
		{"Vintage", []string{"vintage", "streetwear"}},
		{"Dark", []string{"goth", "minimal"}},
	},
}

var seedColorways = []string{"Black", "White", "Olive", "Stone"}
