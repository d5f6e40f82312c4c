package llm

// The instruction contract: the model must return one JSON object matching
// the parsed schema and nothing else. Non-JSON wrapping is tolerated by
// the salvage parser, not by the prompt.
const (
	systemPrompt = "Ты — строгий экстрактор вакансий/резюме для геодезии. " +
		"Твоя задача — извлечь поля и вернуть ЧИСТЫЙ JSON. " +
		"Никакого текста, пояснений, комментариев или ``` — только один JSON-объект."

	extractionInstruction = "Извлеки из текста следующие поля и верни JSON:\n" +
		"role (employer|candidate|unknown), position,\n" +
		"salary{min,max,currency,period},\n" +
		"employment[], schedule[], equipment[], skills[],\n" +
		"experience_years, city{city,region,country},\n" +
		"contact{name,phone,email,telegram,whatsapp,link},\n" +
		"source{platform,post_id,author_id,posted_at}, text_clean, confidence (0..1), errors[].\n\n" +
		"Указания:\n" +
		"— Используй #вакансия/#резюме как сигнал роли.\n" +
		"— Распознавай вахтовые форматы 45/15, 60/30, 5/2.\n" +
		"— 'т.р'/'тыс' = ×1000.\n" +
		"— НЕ путай телефоны с зарплатой (номера начинаются с +7/8 и содержат 10–12 цифр).\n" +
		"— Если данных нет — ставь null или пустой список.\n" +
		"— Отвечай ЧИСТЫМ JSON без лишних символов."

	validatorSystem = "Ты — валидатор структурированных вакансий. " +
		"Получишь исходный текст и JSON-объект. " +
		"Исправь противоречия и заполни ПУСТЫЕ поля, если это однозначно следует из текста " +
		"или общеизвестных соответствий (город→регион/страна РФ). Никаких выдумок. " +
		"Верни ТОЛЬКО ОДИН JSON-объект."

	validatorInstruction = "Текст:\n%s\n\nТекущий JSON:\n%s\n\n" +
		"Правила:\n" +
		"— Корректируй salary min/max, currency/period если читается из текста.\n" +
		"— Если city указан, а region/country пусты — подставь корректные значения (Россия) при российском городе.\n" +
		"— Приведи employment/schedule к вахта/rotation, 45/15 и т.д., если явно указано.\n" +
		"— Никакого текста, только JSON."
)
