package internal

import (
	"fmt"
	"strings"
)

// Language is a chat UI language
type Language struct {
	Code string
	Name string
}

// Languages lists the supported chat languages
var Languages = []Language{
	{Code: "en", Name: "English"},
	{Code: "es", Name: "Spanish"},
	{Code: "fr", Name: "French"},
	{Code: "de", Name: "German"},
	{Code: "it", Name: "Italian"},
	{Code: "pt", Name: "Portuguese"},
	{Code: "ru", Name: "Russian"},
	{Code: "zh", Name: "Chinese"},
	{Code: "ja", Name: "Japanese"},
	{Code: "ko", Name: "Korean"},
	{Code: "ar", Name: "Arabic"},
	{Code: "hi", Name: "Hindi"},
}

// DefaultLanguage is used when no language is configured
const DefaultLanguage = "en"

// LookupLanguage finds a language by code (case-insensitive).
func LookupLanguage(code string) (Language, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, l := range Languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// LanguageName returns the English name of code, defaulting to English.
func LanguageName(code string) string {
	if l, ok := LookupLanguage(code); ok {
		return l.Name
	}
	return "English"
}

var welcomeMessages = map[string]string{
	"en": "Hello! I'm your Format Conversion Assistant. How can I help you today?",
	"es": "¡Hola! Soy tu Asistente de Conversión de Formatos. ¿Cómo puedo ayudarte hoy?",
	"fr": "Bonjour ! Je suis votre Assistant de Conversion de Format. Comment puis-je vous aider aujourd'hui ?",
	"de": "Hallo! Ich bin Ihr Format-Konvertierungs-Assistent. Wie kann ich Ihnen heute helfen?",
	"it": "Ciao! Sono il tuo Assistente di Conversione Formato. Come posso aiutarti oggi?",
	"pt": "Olá! Sou seu Assistente de Conversão de Formato. Como posso ajudá-lo hoje?",
	"ru": "Привет! Я ваш Ассистент по Конвертации Форматов. Чем я могу помочь вам сегодня?",
	"zh": "你好！我是格式转换助手。今天我能帮您什么忙？",
	"ja": "こんにちは！フォーマット変換アシスタントです。今日はどのようにお手伝いしましょうか？",
	"ko": "안녕하세요! 형식 변환 도우미입니다. 오늘 어떻게 도와드릴까요?",
	"ar": "مرحبًا! أنا مساعد تحويل التنسيق. كيف يمكنني مساعدتك اليوم؟",
	"hi": "नमस्ते! मैं आपका फॉर्मेट रूपांतरण सहायक हूँ। आज मैं आपकी कैसे सहायता कर सकता हूँ?",
}

// WelcomeMessage returns the greeting that seeds a fresh chat history.
func WelcomeMessage(code string) string {
	if msg, ok := welcomeMessages[strings.ToLower(code)]; ok {
		return msg
	}
	return welcomeMessages[DefaultLanguage]
}

// SystemPrompt is the instruction prepended to every chat request.
func SystemPrompt(code string) string {
	return fmt.Sprintf("You are a helpful assistant for a file format conversion website. "+
		"Help users understand how to convert files, what formats are supported, and provide advice about file conversions. "+
		"Please respond in %s. Be friendly, concise, and helpful.", LanguageName(code))
}

var placeholders = map[string]string{
	"en": "Type your message...",
	"es": "Escribe tu mensaje...",
	"fr": "Tapez votre message...",
	"de": "Geben Sie Ihre Nachricht ein...",
	"it": "Scrivi il tuo messaggio...",
	"pt": "Digite sua mensagem...",
	"ru": "Введите ваше сообщение...",
	"zh": "输入您的消息...",
	"ja": "メッセージを入力してください...",
	"ko": "메시지를 입력하세요...",
	"ar": "اكتب رسالتك...",
	"hi": "अपना संदेश लिखें...",
}

// Placeholder is the chat input hint text.
func Placeholder(code string) string {
	if p, ok := placeholders[strings.ToLower(code)]; ok {
		return p
	}
	return placeholders[DefaultLanguage]
}

var conversationStarters = map[string][]string{
	"en": {
		"What file formats can I convert?",
		"How do I convert a PDF to DOCX?",
		"Is my data secure during conversion?",
		"Can I batch convert multiple files?",
		"What's the maximum file size for conversion?",
	},
	"es": {
		"¿Qué formatos de archivo puedo convertir?",
		"¿Cómo convierto un PDF a DOCX?",
		"¿Están seguros mis datos durante la conversión?",
		"¿Puedo convertir varios archivos a la vez?",
		"¿Cuál es el tamaño máximo de archivo para la conversión?",
	},
	"fr": {
		"Quels formats de fichiers puis-je convertir ?",
		"Comment convertir un PDF en DOCX ?",
		"Mes données sont-elles sécurisées pendant la conversion ?",
		"Puis-je convertir plusieurs fichiers à la fois ?",
		"Quelle est la taille maximale de fichier pour la conversion ?",
	},
	"de": {
		"Welche Dateiformate kann ich konvertieren?",
		"Wie konvertiere ich eine PDF in DOCX?",
		"Sind meine Daten während der Konvertierung sicher?",
		"Kann ich mehrere Dateien auf einmal konvertieren?",
		"Was ist die maximale Dateigröße für die Konvertierung?",
	},
}

// ConversationStarters returns suggested first questions; unknown languages get English.
func ConversationStarters(code string) []string {
	if s, ok := conversationStarters[strings.ToLower(code)]; ok {
		return s
	}
	return conversationStarters[DefaultLanguage]
}

// chatErrorMessages is keyed by language, then by error kind. Kinds absent
// here use KindUnknown's text.
var chatErrorMessages = map[string]map[ErrorKind]string{
	"en": {
		KindRequestTimedOut:    "The request took too long to process. Please try again or use a shorter message.",
		KindNetwork:            "There seems to be a network issue. Please check your internet connection and try again.",
		KindServiceUnavailable: "The chat service is currently unavailable. Please try again later.",
		KindUnknown:            "Sorry, I encountered an unexpected error. Please try again later.",
	},
	"es": {
		KindRequestTimedOut:    "La solicitud tardó demasiado. Inténtalo de nuevo o envía un mensaje más corto.",
		KindNetwork:            "Parece que hay un problema de conexión. Por favor, revisa tu conexión a internet e inténtalo de nuevo.",
		KindServiceUnavailable: "El servicio de chat no está disponible en este momento. Por favor, inténtalo más tarde.",
		KindUnknown:            "Lo siento, he encontrado un error inesperado. Por favor, inténtalo de nuevo más tarde.",
	},
	"fr": {
		KindRequestTimedOut:    "La requête a pris trop de temps. Veuillez réessayer ou utilisez un message plus court.",
		KindNetwork:            "Il semble y avoir un problème de réseau. Veuillez vérifier votre connexion Internet et réessayer.",
		KindServiceUnavailable: "Le service de chat est actuellement indisponible. Veuillez réessayer plus tard.",
		KindUnknown:            "Désolé, j'ai rencontré une erreur inattendue. Veuillez réessayer plus tard.",
	},
	"de": {
		KindRequestTimedOut:    "Die Anfrage hat zu lange gedauert. Bitte versuchen Sie es erneut oder verwenden Sie eine kürzere Nachricht.",
		KindNetwork:            "Es scheint ein Netzwerkproblem zu geben. Bitte überprüfen Sie Ihre Internetverbindung und versuchen Sie es erneut.",
		KindServiceUnavailable: "Der Chat-Dienst ist derzeit nicht verfügbar. Bitte versuchen Sie es später erneut.",
		KindUnknown:            "Entschuldigung, ich bin auf einen unerwarteten Fehler gestoßen. Bitte versuchen Sie es später erneut.",
	},
}

// LocalizedChatError returns the user-facing chat failure text for kind in
// the given language. Languages without a table fall back to English.
func LocalizedChatError(code string, kind ErrorKind) string {
	table, ok := chatErrorMessages[strings.ToLower(code)]
	if !ok {
		table = chatErrorMessages[DefaultLanguage]
	}
	if msg, ok := table[kind]; ok {
		return msg
	}
	return table[KindUnknown]
}
