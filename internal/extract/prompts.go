package extract

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/finance-bot/internal/domain"
)

const outputContract = "Responde SOLO con un objeto JSON, sin comentarios y sin Markdown:\n" +
	"{\n" +
	"  \"amount\": number (positivo, en COP),\n" +
	"  \"category_id\": number (un ID de las listas de arriba),\n" +
	"  \"description\": string (breve, puede ser \"\"),\n" +
	"  \"type\": \"expense\" o \"income\",\n" +
	"  \"date\": \"YYYY-MM-DD\"\n" +
	"}\n"

func buildTextPrompt(text string, expense, income []domain.Category, today civil.Date) string {
	var b strings.Builder
	b.WriteString("Eres un extractor de transacciones para un bot de finanzas personales en Colombia.\n")
	b.WriteString("Analiza el mensaje del usuario y extrae UNA transacción.\n\n")
	b.WriteString(fmt.Sprintf("MENSAJE: %q\n\n", text))
	writeSharedRules(&b, expense, income, today)
	return b.String()
}

func buildImagePrompt(expense, income []domain.Category, today civil.Date) string {
	var b strings.Builder
	b.WriteString("Eres un extractor de transacciones para un bot de finanzas personales en Colombia.\n")
	b.WriteString("La imagen adjunta es una factura o recibo. Lee el total pagado y el comercio,\n")
	b.WriteString("y extrae UNA transacción.\n\n")
	writeSharedRules(&b, expense, income, today)
	return b.String()
}

func buildAudioPrompt(expense, income []domain.Category, today civil.Date) string {
	var b strings.Builder
	b.WriteString("Eres un extractor de transacciones para un bot de finanzas personales en Colombia.\n")
	b.WriteString("El audio adjunto es una nota de voz. Transcríbela mentalmente y extrae UNA transacción.\n\n")
	writeSharedRules(&b, expense, income, today)
	return b.String()
}

func writeSharedRules(b *strings.Builder, expense, income []domain.Category, today civil.Date) {
	b.WriteString("CATEGORÍAS DE GASTO (type \"expense\"):\n")
	b.WriteString(formatCategories(expense))
	b.WriteString("\nCATEGORÍAS DE INGRESO (type \"income\"):\n")
	b.WriteString(formatCategories(income))
	b.WriteString("\nREGLAS:\n")
	b.WriteString(fmt.Sprintf("- La fecha de HOY es %s (zona horaria de Colombia).\n", today))
	b.WriteString("- Expresiones relativas: \"hoy\" = la fecha de hoy, \"ayer\" = un día antes, \"antier\" = dos días antes.\n")
	b.WriteString("- Montos coloquiales: \"20k\" o \"20 lucas\" = 20000, \"1 palo\" = 1000000.\n")
	b.WriteString("- category_id debe pertenecer a la lista que corresponde al type elegido.\n")
	b.WriteString("- Si no hay fecha explícita, usa la fecha de hoy.\n\n")
	b.WriteString(outputContract)
}

func formatCategories(categories []domain.Category) string {
	if len(categories) == 0 {
		return "  (ninguna disponible)\n"
	}
	var b strings.Builder
	for _, cat := range categories {
		b.WriteString(fmt.Sprintf("  - ID %d: %s\n", cat.ID, cat.Name))
	}
	return b.String()
}

// transcriptionPrompt asks for a literal transcription with no interpretation.
const transcriptionPrompt = "Transcribe este audio exactamente como fue dicho. Solo el texto."
