package bot

// User-facing reply strings. Everything the bot says is in Spanish, matching
// its user base.
const (
	msgWelcome = "¡Hola! 👋 Soy tu asistente de finanzas personales.\n\n" +
		"Escríbeme tus gastos o ingresos en lenguaje natural:\n" +
		"  💸 \"Gasté 20k en almuerzo\"\n" +
		"  💰 \"Me pagaron 2 palos\"\n\n" +
		"También puedes mandarme una foto de un recibo o una nota de voz, " +
		"y preguntarme cosas como \"¿Cuánto gasté en comida este mes?\"."

	msgExtractionUnclear = "🤔 No pude entender los detalles. Intenta algo como: " +
		"\"Gasté 20k en almuerzo\" o \"Recibí 500 mil de salario\"."

	msgServiceUnavailable = "😓 Estoy teniendo problemas para procesar tu mensaje. " +
		"Inténtalo de nuevo en un momento."

	msgSaveFailed = "😓 No pude guardar tu transacción. Inténtalo de nuevo."

	msgQueryFailed = "😓 No pude consultar tu información en este momento. " +
		"Inténtalo de nuevo."

	msgQueryUnclear = "😅 No pude procesar tu consulta. Intenta reformularla " +
		"de otra manera."

	msgVoiceFailed = "😓 No pude procesar tu nota de voz. Inténtalo de nuevo."

	msgVoiceEmpty = "🎤 No logré entender tu nota de voz. ¿Me lo puedes escribir?"

	msgDashboardUnavailable = "El dashboard no está disponible por ahora."

	msgDashboardLink = "🔐 Tu acceso al dashboard (válido por 1 minuto):\n"
)
