package analytics

import (
	"fmt"
	"strings"
)

// schemaInfo describes only the two tables the question pipeline may read.
const schemaInfo = `ESQUEMA DE BASE DE DATOS (PostgreSQL):

Tabla: transactions
- id (integer, PK)
- user_id (bigint)
- category_id (integer, FK -> categories.id)
- amount (numeric(10,2)) - monto en COP, siempre positivo
- transaction_date (timestamptz) - fecha y hora en UTC
- description (text, puede ser NULL)

Tabla: categories
- id (integer, PK)
- user_id (bigint)
- name (text)
- type (text: 'expense' o 'income')
- is_default (boolean)

REGLA DE TIMEZONE:
- Convierte transaction_date a America/Bogota antes de filtrar o agrupar por fecha.
`

func buildSQLPrompt(question string, userID int64, todayLocal string) string {
	var b strings.Builder
	b.WriteString("ROL: Eres un Analista de Datos de SOLO LECTURA. Generas consultas SQL (PostgreSQL) para responder preguntas financieras.\n\n")
	b.WriteString(schemaInfo)
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("PREGUNTA DEL USUARIO: %q\n", question))
	b.WriteString(fmt.Sprintf("ID DEL USUARIO: %d\n", userID))
	b.WriteString(fmt.Sprintf("FECHA DE HOY EN COLOMBIA: %s\n\n", todayLocal))
	b.WriteString("REGLAS:\n")
	b.WriteString("- Genera UNA sola consulta SELECT, sin punto y coma final.\n")
	b.WriteString(fmt.Sprintf("- Filtra SIEMPRE por user_id = %d.\n", userID))
	b.WriteString("- Nunca generes DML ni DDL.\n")
	b.WriteString("- Si la pregunta pide borrar, cambiar o modificar datos, responde exactamente: SELECT 'ACTION_NOT_ALLOWED'\n\n")
	b.WriteString("Responde SOLO con el SQL, sin explicaciones.\n\nSQL:")
	return b.String()
}

func buildInterpretPrompt(question, resultsJSON string) string {
	var b strings.Builder
	b.WriteString("ROL: Eres un asistente financiero colombiano amable y profesional de SOLO LECTURA.\n\n")
	b.WriteString(fmt.Sprintf("PREGUNTA ORIGINAL DEL USUARIO: %q\n\n", question))
	b.WriteString("RESULTADOS DE LA CONSULTA (JSON):\n")
	b.WriteString(resultsJSON)
	b.WriteString("\n\n")
	b.WriteString("Interpreta los resultados y responde la pregunta de forma clara y breve.\n")
	b.WriteString("Formatea los montos en pesos colombianos: punto para miles, coma para decimales (ej: $1.500,50).\n")
	b.WriteString("Usa emojis cuando sea apropiado (💰, 📊, 💸).\n\n")
	b.WriteString("Responde ahora:")
	return b.String()
}
