package nutrition

// analysisPrompt asks for Brazilian Portuguese text, unitless numbers and a
// single "foodAnalysis" object without markdown.
const analysisPrompt = `Analise esta imagem de alimento e forneça informações nutricionais abrangentes no seguinte formato JSON:
{
  "foodAnalysis": {
    "food_name": "Nome do alimento ou prato",
    "food_category": "Categoria principal (ex: Frutas, Grãos, Laticínios, Carnes, Prato pronto)",
    "description": "Descrição detalhada do prato e dos ingredientes visíveis",
    "confidence_score": "Confiança da identificação, de 0 a 1",
    "health_score": "Pontuação de saúde de 0 a 100",
    "portion_size": "Tamanho estimado da porção em gramas",
    "portion_description": "Descrição da porção (ex: 1 prato médio, 2 fatias)",
    "macronutrients": {
      "calories": "Calorias (kcal)",
      "protein": "Proteína (g)",
      "carbohydrates": "Carboidratos totais (g)",
      "dietary_fiber": "Fibra alimentar (g)",
      "net_carbs": "Carboidratos líquidos (g)",
      "total_fat": "Gordura total (g)",
      "saturated_fat": "Gordura saturada (g)",
      "trans_fat": "Gordura trans (g)",
      "monounsaturated_fat": "Gordura monoinsaturada (g)",
      "polyunsaturated_fat": "Gordura poli-insaturada (g)",
      "cholesterol": "Colesterol (mg)",
      "sodium": "Sódio (mg)",
      "sugar": "Açúcares totais (g)",
      "added_sugar": "Açúcar adicionado (g)"
    },
    "micronutrients": {
      "vitamin_a": "Vitamina A (mcg)",
      "vitamin_c": "Vitamina C (mg)",
      "vitamin_d": "Vitamina D (mcg)",
      "vitamin_e": "Vitamina E (mg)",
      "vitamin_k": "Vitamina K (mcg)",
      "vitamin_b1_thiamine": "Vitamina B1 - Tiamina (mg)",
      "vitamin_b2_riboflavin": "Vitamina B2 - Riboflavina (mg)",
      "vitamin_b3_niacin": "Vitamina B3 - Niacina (mg)",
      "vitamin_b5_pantothenic_acid": "Vitamina B5 - Ácido pantotênico (mg)",
      "vitamin_b6_pyridoxine": "Vitamina B6 - Piridoxina (mg)",
      "vitamin_b7_biotin": "Vitamina B7 - Biotina (mcg)",
      "vitamin_b9_folate": "Vitamina B9 - Folato (mcg)",
      "vitamin_b12_cobalamin": "Vitamina B12 - Cobalamina (mcg)",
      "calcium": "Cálcio (mg)",
      "iron": "Ferro (mg)",
      "magnesium": "Magnésio (mg)",
      "phosphorus": "Fósforo (mg)",
      "potassium": "Potássio (mg)",
      "zinc": "Zinco (mg)",
      "copper": "Cobre (mg)",
      "manganese": "Manganês (mg)",
      "selenium": "Selênio (mcg)",
      "iodine": "Iodo (mcg)",
      "chromium": "Cromo (mcg)",
      "molybdenum": "Molibdênio (mcg)"
    },
    "health_benefits": ["Benefícios para a saúde"],
    "potential_concerns": ["Possíveis preocupações nutricionais"],
    "preparation_tips": ["Dicas de preparo mais saudáveis"],
    "storage_recommendations": ["Recomendações de armazenamento"]
  }
}

Instruções adicionais:
1. Forneça estimativas realistas baseadas em tabelas nutricionais científicas (TACO, USDA).
2. Preencha todos os campos de macronutrientes e micronutrientes; use 0 quando o nutriente estiver ausente.
3. Dê conselhos de saúde específicos e práticos.
4. Escreva todos os números sem unidades no JSON (ex: 25 e não "25g").
5. Nunca use formatação markdown; responda apenas com o JSON puro.
6. Escreva todos os textos em português do Brasil.`
