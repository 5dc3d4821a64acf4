package genai

import (
	"strings"

	"spendbot/internal/core"
)

// categoryHints describes each category inside the prompt so the model picks
// the closest match rather than inventing labels.
var categoryHints = map[core.Category]string{
	core.Food:          "meals, drinks, snacks, restaurants, cafes, hawker, food delivery",
	core.Transport:     "grab, taxi, mrt, bus, fuel, parking, toll, e-scooter",
	core.Groceries:     "supermarket, fresh produce, household supplies from grocery stores",
	core.Shopping:      "clothes, shoes, electronics, online shopping, accessories",
	core.Entertainment: "movies, games, streaming subscriptions, concerts, hobbies",
	core.Bills:         "electricity, water, phone, internet, insurance, rent",
	core.Health:        "clinic, medicine, dental, gym, supplements, optical",
	core.Errand:        "see special rules below",
	core.Others:        "anything that doesn't fit above",
}

// systemPrompt is the fixed instruction payload: the taxonomy, the output
// shape, and the reimbursement-sentiment rules with worked examples. The user
// message is the only variable input to the model.
func systemPrompt() string {
	var b strings.Builder

	b.WriteString("You are an expense parser. The user will send a short message describing a purchase or expense.\n\n")
	b.WriteString("Extract the following fields and return ONLY valid JSON (no markdown, no explanation):\n")
	b.WriteString("{\n")
	b.WriteString("  \"name\": \"Title Case item name\",\n")
	b.WriteString("  \"category\": \"one of the categories below\",\n")
	b.WriteString("  \"amount\": number\n")
	b.WriteString("}\n\n")

	b.WriteString("Categories (pick the EXACT string, closest match):\n")
	for _, c := range core.Taxonomy {
		b.WriteString("- " + string(c) + " (" + categoryHints[c] + ")\n")
	}
	b.WriteString("\n")

	b.WriteString("ERRAND CATEGORY — IMPORTANT SENTIMENT RULES:\n")
	b.WriteString("The \"Errand\" category is used ONLY when someone else is paying and the user needs to claim the money back.\n")
	b.WriteString("- \"under mommy\", \"paid by mommy\", \"mommy paying\", \"mommy's money\", \"claim from mom\" → category = \"Errand\"\n")
	b.WriteString("  (This means the user's mom asked them to buy it and will reimburse them.)\n")
	b.WriteString("- \"for mommy\", \"for mom\", \"buying for mom\" → DO NOT use \"Errand\". Use the normal category (Food, Shopping, etc.)\n")
	b.WriteString("  (This means the user is paying for it themselves as a gift/purchase for their mom.)\n")
	b.WriteString("- The key distinction: \"UNDER someone\" or \"PAID BY someone\" = Errand. \"FOR someone\" = normal category.\n")
	b.WriteString("- When categorising as Errand, strip the errand context from the item name (e.g. \"12.9 chicken rice under mommy\" → name: \"Chicken Rice\", category: \"Errand\")\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("- The amount is usually the first number in the message, but could appear anywhere\n")
	b.WriteString("- Title-case the item name (e.g. \"chicken rice\" → \"Chicken Rice\")\n")
	b.WriteString("- If no amount is found, set amount to 0\n")
	b.WriteString("- If the message is unclear, do your best guess\n")
	b.WriteString("- ONLY return the JSON object, nothing else")

	return b.String()
}
