package rules

// Default returns the built-in rule table.
//
// Order matters. MCDONALD, TARGET and BEST BUY each appear twice and only the
// first entry can match; UBER EATS is listed before UBER on purpose.
func Default() *Table {
	return NewTable(defaultRules()...)
}

func defaultRules() []Rule {
	return []Rule{
		// Streaming
		MustRule("TWITCH TWITCH", "Monthly Twitch Subscription"),
		MustRule("TWITCH INTERACTI", "Twitch Paycheck"),
		MustRule("CRUNCHYROLL", "Monthly Crunchyroll Premium Subscription"),
		MustRule("FLOSPORTS SUBSCRIP", "Monthly FloMarching Subscription"),
		MustRule("NETFLIX", "Monthly Netflix Subscription"),
		MustRule("HULU", "Monthly Hulu Subscription"),
		MustRule("DISNEY", "Monthly Disney+ Subscription"),
		MustRule("AMAZON PRIME", "Amazon Prime Membership"),
		MustRule("YOUTUBE PREMIUM", "Monthly YouTube Premium"),

		// Gaming
		MustRule("STEAM", "Online Steam Purchase"),
		MustRule("DISCORD", "Discord Transaction"),
		MustRule("RIOT", "Valorant Points Purchase"),
		MustRule("PLAYSTATION", "Playstation Game Purchase"),
		MustRule("HOYOVERSE", "Gacha Game Purchase"),
		MustRule("XBOX", "Xbox Store Purchase"),
		MustRule("NINTENDO", "Nintendo eShop Purchase"),
		MustRule("EPIC GAMES", "Epic Games Store Purchase"),

		// Music
		MustRule("SPOTIFY", "Monthly Spotify Premium Subscription"),

		// Work
		MustRule("TARGET", "My Target Paycheck"),

		// Food
		MustRule("COCO ICHIBANYA", "Food at Coco Ichibanya"),
		MustRule("THE HALAL GUYS", "Food at Halal Guys"),
		MustRule("MCDONALD", "Food at McDonalds"),
		MustRule("SOMISOMI", "Dessert at SomiSomi"),
		MustRule("ANDY", "Dessert at Andy's"),
		MustRule("MUTEKI RAMEN", "Ramen at Muteki"),
		MustRule("FIFINE", "Fifine Tech Purchase"),
		MustRule("LINSOUL", "Linsoul IEM Purchase"),
		MustRule("MCDONALD", "McDonald's"),
		MustRule("STARBUCKS", "Starbucks Coffee"),
		MustRule("CHIPOTLE", "Chipotle Mexican Grill"),
		MustRule("SUBWAY", "Subway Sandwiches"),
		MustRule("DOMINO", "Domino's Pizza"),
		MustRule("PIZZA HUT", "Pizza Hut"),
		MustRule("TACO BELL", "Taco Bell"),
		MustRule("DOORDASH", "DoorDash Food Delivery"),
		MustRule("UBER EATS", "Uber Eats Food Delivery"),
		MustRule("GRUBHUB", "Grubhub Food Delivery"),

		// Transportation
		MustRule("UBER", "Uber Ride"),
		MustRule("LYFT", "Lyft Ride"),
		MustRule("SHELL", "Shell Gas Station"),
		MustRule("EXXON", "Exxon Gas Station"),
		MustRule("CHEVRON", "Chevron Gas Station"),
		MustRule("TEXACO", "Texaco Gas Station"),

		// Retail
		MustRule("AMAZON", "Amazon Purchase"),
		MustRule("TARGET", "Target Store"),
		MustRule("WALMART", "Walmart Store"),
		MustRule("BEST BUY", "Best Buy Electronics"),
		MustRule("HOME DEPOT", "Home Depot"),
		MustRule("LOWES", "Lowe's Home Improvement"),
		MustRule("CVS", "CVS Pharmacy"),
		MustRule("WALGREENS", "Walgreens Pharmacy"),

		// Financial
		MustRule("ATM WITHDRAWAL", "ATM Cash Withdrawal"),
		MustRule("TRANSFER", "Account Transfer"),
		MustRule("FEE", "Bank Fee"),

		// Utilities
		MustRule("ELECTRIC", "Electric Bill"),
		MustRule("INTERNET", "Internet Bill"),
		MustRule("PHONE", "Phone Bill"),
		MustRule("WATER", "Water Bill"),
		MustRule("GAS COMPANY", "Gas Bill"),

		// Misc
		MustRule("APPLE", "Apple - Related Payment"),
		MustRule("ZELLE", "Zelle Transaction"),
		MustRule("ICARE", "Icare - Urgent Care Visit"),
		MustRule("UNITED EXPRESS", "Market Street Gas"),
		MustRule("MCGRAW-HILL", "McGraw Hill Purchase (Probably Textbook)"),
		MustRule("UT DALLAS BKSTR", "UTD Bookstore Purchase"),
		MustRule("FLEX PARKIN", "UTD Parking Permit"),
		MustRule("ZIPS CAR WASH", "Car Wash"),
		MustRule("ORTHOTEXASFRISCO", "Orthopedics Visit"),
		MustRule("BEST BUY", "Best Buy Purchase"),
		MustRule("KWIK KAR", "Car Maintenance At Kwik Kar"),
		MustRule("MICRO ELECTRONIC", "Microcenter Purchase"),
		MustRule("OPENAI", "ChatGPT Token Purchase"),
		MustRule("CDAWG", "CdawgVA Merch"),
	}
}
