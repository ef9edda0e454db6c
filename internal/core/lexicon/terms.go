package lexicon

// PropertyTerms is the benefit/property vocabulary. Phrases are stored in
// normalized form.
var PropertyTerms = []Term{
	{Phrase: "moisturizing", Canonical: "moisturizing", Weight: 0.3, Lang: LangEnglish},
	{Phrase: "moisturising", Canonical: "moisturizing", Weight: 0.3, Lang: LangEnglish},
	{Phrase: "moisturizer", Canonical: "moisturizing", Weight: 0.25, Lang: LangEnglish},
	{Phrase: "hydrating", Canonical: "moisturizing", Weight: 0.25, Lang: LangEnglish},
	{Phrase: "hydration", Canonical: "moisturizing", Weight: 0.25, Lang: LangEnglish},
	{Phrase: "anti-aging", Canonical: "anti-aging", Weight: 0.3, Lang: LangEnglish},
	{Phrase: "anti aging", Canonical: "anti-aging", Weight: 0.3, Lang: LangEnglish},
	{Phrase: "antiaging", Canonical: "anti-aging", Weight: 0.3, Lang: LangEnglish},
	{Phrase: "anti-wrinkle", Canonical: "anti-wrinkle", Weight: 0.3, Lang: LangEnglish},
	{Phrase: "wrinkle", Canonical: "anti-wrinkle", Weight: 0.2, Lang: LangEnglish},
	{Phrase: "whitening", Canonical: "whitening", Weight: 0.3, Lang: LangEnglish},
	{Phrase: "brightening", Canonical: "brightening", Weight: 0.3, Lang: LangEnglish},
	{Phrase: "anti-acne", Canonical: "anti-acne", Weight: 0.3, Lang: LangEnglish},
	{Phrase: "acne", Canonical: "anti-acne", Weight: 0.25, Lang: LangEnglish},
	{Phrase: "antioxidant", Canonical: "antioxidant", Weight: 0.3, Lang: LangEnglish},
	{Phrase: "anti-inflammatory", Canonical: "anti-inflammatory", Weight: 0.3, Lang: LangEnglish},
	{Phrase: "soothing", Canonical: "soothing", Weight: 0.25, Lang: LangEnglish},
	{Phrase: "sunscreen", Canonical: "uv-protection", Weight: 0.3, Lang: LangEnglish},
	{Phrase: "uv protection", Canonical: "uv-protection", Weight: 0.3, Lang: LangEnglish},
	{Phrase: "spf", Canonical: "uv-protection", Weight: 0.25, Lang: LangEnglish},
	{Phrase: "exfoliating", Canonical: "exfoliating", Weight: 0.25, Lang: LangEnglish},
	{Phrase: "emollient", Canonical: "emollient", Weight: 0.25, Lang: LangEnglish},
	{Phrase: "emulsifier", Canonical: "emulsifier", Weight: 0.25, Lang: LangEnglish},
	{Phrase: "thickener", Canonical: "thickener", Weight: 0.2, Lang: LangEnglish},
	{Phrase: "preservative", Canonical: "preservative", Weight: 0.2, Lang: LangEnglish},
	{Phrase: "surfactant", Canonical: "surfactant", Weight: 0.2, Lang: LangEnglish},
	{Phrase: "hair care", Canonical: "hair-care", Weight: 0.25, Lang: LangEnglish},
	{Phrase: "collagen boosting", Canonical: "collagen-boosting", Weight: 0.3, Lang: LangEnglish},

	{Phrase: "ให้ความชุ่มชื้น", Canonical: "moisturizing", Weight: 0.35, Lang: LangThai},
	{Phrase: "ชุ่มชื้น", Canonical: "moisturizing", Weight: 0.3, Lang: LangThai},
	{Phrase: "ต่อต้านริ้วรอย", Canonical: "anti-aging", Weight: 0.35, Lang: LangThai},
	{Phrase: "ชะลอวัย", Canonical: "anti-aging", Weight: 0.3, Lang: LangThai},
	{Phrase: "ลดริ้วรอย", Canonical: "anti-wrinkle", Weight: 0.3, Lang: LangThai},
	{Phrase: "ผิวขาว", Canonical: "whitening", Weight: 0.3, Lang: LangThai},
	{Phrase: "ไวท์เทนนิ่ง", Canonical: "whitening", Weight: 0.3, Lang: LangThai},
	{Phrase: "กระจ่างใส", Canonical: "brightening", Weight: 0.3, Lang: LangThai},
	{Phrase: "ลดสิว", Canonical: "anti-acne", Weight: 0.3, Lang: LangThai},
	{Phrase: "ต้านอนุมูลอิสระ", Canonical: "antioxidant", Weight: 0.3, Lang: LangThai},
	{Phrase: "ลดการอักเสบ", Canonical: "anti-inflammatory", Weight: 0.3, Lang: LangThai},
	{Phrase: "ปลอบประโลมผิว", Canonical: "soothing", Weight: 0.25, Lang: LangThai},
	{Phrase: "กันแดด", Canonical: "uv-protection", Weight: 0.3, Lang: LangThai},
	{Phrase: "ผลัดเซลล์ผิว", Canonical: "exfoliating", Weight: 0.25, Lang: LangThai},
	{Phrase: "สารกันเสีย", Canonical: "preservative", Weight: 0.2, Lang: LangThai},
	{Phrase: "บำรุงผม", Canonical: "hair-care", Weight: 0.25, Lang: LangThai},
}

// NameLookupTerms are phrasings that ask for a specific material by name.
var NameLookupTerms = []Term{
	{Phrase: "what is the code for", Canonical: "code-for", Weight: 0.45, Lang: LangEnglish},
	{Phrase: "what's the code for", Canonical: "code-for", Weight: 0.45, Lang: LangEnglish},
	{Phrase: "code for", Canonical: "code-for", Weight: 0.35, Lang: LangEnglish},
	{Phrase: "code of", Canonical: "code-for", Weight: 0.35, Lang: LangEnglish},
	{Phrase: "look up", Canonical: "lookup", Weight: 0.3, Lang: LangEnglish},
	{Phrase: "lookup", Canonical: "lookup", Weight: 0.3, Lang: LangEnglish},
	{Phrase: "find the material", Canonical: "lookup", Weight: 0.3, Lang: LangEnglish},
	{Phrase: "named", Canonical: "named", Weight: 0.25, Lang: LangEnglish},
	{Phrase: "called", Canonical: "named", Weight: 0.25, Lang: LangEnglish},
	{Phrase: "what is", Canonical: "what-is", Weight: 0.2, Lang: LangEnglish},

	{Phrase: "รหัสของ", Canonical: "code-for", Weight: 0.45, Lang: LangThai},
	{Phrase: "รหัสสาร", Canonical: "code-for", Weight: 0.4, Lang: LangThai},
	{Phrase: "ขอรหัส", Canonical: "code-for", Weight: 0.4, Lang: LangThai},
	{Phrase: "ชื่อสาร", Canonical: "named", Weight: 0.3, Lang: LangThai},
	{Phrase: "ค้นหาสาร", Canonical: "lookup", Weight: 0.3, Lang: LangThai},
	{Phrase: "คืออะไร", Canonical: "what-is", Weight: 0.2, Lang: LangThai},
}

// AvailabilityTerms mark a query as asking for stocked materials only.
var AvailabilityTerms = []Term{
	{Phrase: "in stock", Canonical: "available", Weight: 1, Lang: LangEnglish},
	{Phrase: "available now", Canonical: "available", Weight: 1, Lang: LangEnglish},
	{Phrase: "available", Canonical: "available", Weight: 1, Lang: LangEnglish},
	{Phrase: "on hand", Canonical: "available", Weight: 1, Lang: LangEnglish},
	{Phrase: "ready to use", Canonical: "available", Weight: 1, Lang: LangEnglish},

	{Phrase: "มีในสต็อก", Canonical: "available", Weight: 1, Lang: LangThai},
	{Phrase: "มีสต็อก", Canonical: "available", Weight: 1, Lang: LangThai},
	{Phrase: "ในสต็อก", Canonical: "available", Weight: 1, Lang: LangThai},
	{Phrase: "มีของ", Canonical: "available", Weight: 1, Lang: LangThai},
	{Phrase: "พร้อมใช้", Canonical: "available", Weight: 1, Lang: LangThai},
	{Phrase: "พร้อมส่ง", Canonical: "available", Weight: 1, Lang: LangThai},
}

// FullCatalogTerms mark a query as explicitly asking for the whole catalog.
var FullCatalogTerms = []Term{
	{Phrase: "full catalog", Canonical: "full", Weight: 1, Lang: LangEnglish},
	{Phrase: "entire catalog", Canonical: "full", Weight: 1, Lang: LangEnglish},
	{Phrase: "whole catalog", Canonical: "full", Weight: 1, Lang: LangEnglish},
	{Phrase: "all suppliers", Canonical: "full", Weight: 1, Lang: LangEnglish},
	{Phrase: "orderable", Canonical: "full", Weight: 1, Lang: LangEnglish},
	{Phrase: "including out of stock", Canonical: "full", Weight: 1, Lang: LangEnglish},

	{Phrase: "ทั้งหมด", Canonical: "full", Weight: 1, Lang: LangThai},
	{Phrase: "ฐานข้อมูล", Canonical: "full", Weight: 1, Lang: LangThai},
	{Phrase: "สั่งซื้อได้", Canonical: "full", Weight: 1, Lang: LangThai},
	{Phrase: "แคตตาล็อก", Canonical: "full", Weight: 1, Lang: LangThai},
}
