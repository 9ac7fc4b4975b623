package ztext

// extraCharacters is the standard translation table for ZSCII codes
// 155..223.
var extraCharacters = [69]rune{
	'ä', 'ö', 'ü',
	'Ä', 'Ö', 'Ü',
	'ß', '«', '»',
	'ë', 'ï', 'ÿ',
	'Ë', 'Ï', 'á',
	'é', 'í', 'ó',
	'ú', 'ý', 'Á',
	'É', 'Í', 'Ó',
	'Ú', 'Ý', 'à',
	'è', 'ì', 'ò',
	'ù', 'À', 'È',
	'Ì', 'Ò', 'Ù',
	'â', 'ê', 'î',
	'ô', 'û', 'Â',
	'Ê', 'Î', 'Ô',
	'Û', 'å', 'Å',
	'ø', 'Ø', 'ã',
	'ñ', 'õ', 'Ã',
	'Ñ', 'Õ', 'æ',
	'Æ', 'ç', 'Ç',
	'þ', 'ð', 'Þ',
	'Ð', '£', 'œ',
	'Œ', '¡', '¿',
}

// ZSCII converts an output character code to text. Codes with no defined
// output rendering produce the empty string.
func ZSCII(code uint16) string {
	switch {
	case code == 13 || code == 10:
		return "\n"
	case code == 9:
		return " "
	case code >= 32 && code <= 126:
		return string(rune(code))
	case code >= 155 && code <= 223:
		return string(extraCharacters[code-155])
	default:
		return ""
	}
}
