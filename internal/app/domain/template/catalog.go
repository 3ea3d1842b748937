package template

var defaultCatalog = map[string]string{
	"core.no-response":        "$sender, this command doesn't have any response.",
	"core.permission-denied":  "$sender, you don't have permission to use this command.",
	"core.unknown-permission": "$sender, permission $permission doesn't exist.",
	"core.command-parse":      "$sender, sorry, but this command is not correct, use $usage",
	"core.internal-error":     "$sender, something went wrong, try again later.",
	"core.not-found":          "$sender, $entity $key was not found.",
	"core.already-exists":     "$sender, $key already exists.",
	"core.invalid":            "$sender, $reason.",
	"core.unavailable":        "$sender, $feature is not available right now.",

	"customcmds.command-was-added":      "$sender, command $command was added.",
	"customcmds.command-was-edited":     "$sender, command $command was edited.",
	"customcmds.command-was-removed":    "$sender, command $command was removed.",
	"customcmds.response-was-removed":   "$sender, response #$response of $command was removed.",
	"customcmds.response-was-not-found": "$sender, response #$response of $command was not found.",
	"customcmds.command-was-not-found":  "$sender, command $command was not found.",
	"customcmds.command-was-enabled":    "$sender, command $command was enabled.",
	"customcmds.command-was-disabled":   "$sender, command $command was disabled.",
	"customcmds.command-was-exposed":    "$sender, command $command was exposed.",
	"customcmds.command-was-concealed":  "$sender, command $command was concealed.",
	"customcmds.command-is-builtin":     "$sender, command $command collides with a core command.",
	"customcmds.list-is-empty":          "$sender, list of commands is empty.",
	"customcmds.list-is-not-empty":      "$sender, list of commands: $list",
	"customcmds.responses-list":         "$command#$index ($permission) $stop| $response",

	"alias.alias-was-added":      "$sender, alias $alias for $command was added.",
	"alias.alias-was-edited":     "$sender, alias $alias was changed to $command.",
	"alias.alias-was-removed":    "$sender, alias $alias was removed.",
	"alias.alias-was-not-found":  "$sender, alias $alias was not found.",
	"alias.alias-was-enabled":    "$sender, alias $alias was enabled.",
	"alias.alias-was-disabled":   "$sender, alias $alias was disabled.",
	"alias.alias-was-exposed":    "$sender, alias $alias was exposed.",
	"alias.alias-was-concealed":  "$sender, alias $alias was concealed.",
	"alias.alias-cannot-be-self": "$sender, alias $alias cannot point to itself.",
	"alias.list-is-empty":        "$sender, list of aliases is empty.",
	"alias.list-is-not-empty":    "$sender, list of aliases: $list",

	"price.price-was-set":               "$sender, price of $command was set to $amount $pointsName.",
	"price.price-was-unset":             "$sender, price of $command was unset.",
	"price.price-was-not-found":         "$sender, price for $command was not found.",
	"price.price-was-enabled":           "$sender, price for $command was enabled.",
	"price.price-was-disabled":          "$sender, price for $command was disabled.",
	"price.list-is-empty":               "$sender, list of prices is empty.",
	"price.list-is-not-empty":           "$sender, list of prices: $list",
	"price.user-have-not-enough-points": "$sender, sorry, you don't have $amount $pointsName to use $command.",

	"cooldowns.cooldown-was-set":            "$sender, $type cooldown for $command was set to $seconds s.",
	"cooldowns.cooldown-was-unset":          "$sender, cooldown for $command was unset.",
	"cooldowns.cooldown-not-found":          "$sender, cooldown for $command was not found.",
	"cooldowns.cooldown-triggered":          "$sender, '$command' is on cooldown, remaining $seconds s.",
	"cooldowns.cooldown-was-enabled":        "$sender, cooldown for $command was enabled.",
	"cooldowns.cooldown-was-disabled":       "$sender, cooldown for $command was disabled.",
	"cooldowns.cooldown-was-enabled-for-x":  "$sender, cooldown for $command is now applied to $type.",
	"cooldowns.cooldown-was-disabled-for-x": "$sender, cooldown for $command no longer applies to $type.",

	"points.balance":           "$sender, you have $amount $pointsName.",
	"points.points-were-given": "$sender, $username received $amount $pointsName.",

	"moderation.permit-was-given":                      "$sender, $username can post $count link(s) to chat.",
	"moderation.user-is-warned-about-links":            "$sender, no links allowed, ask for !permit [$count warnings left]",
	"moderation.user-is-warned-about-symbols":          "$sender, no excessive symbols usage [$count warnings left]",
	"moderation.user-is-warned-about-long-message":     "$sender, long messages are not allowed [$count warnings left]",
	"moderation.user-is-warned-about-caps":             "$sender, stop talking in capital letters [$count warnings left]",
	"moderation.user-is-warned-about-spam":             "$sender, stop spamming [$count warnings left]",
	"moderation.user-is-warned-about-color":            "$sender, you are not allowed to use /me [$count warnings left]",
	"moderation.user-is-warned-about-emotes":           "$sender, stop spamming emotes [$count warnings left]",
	"moderation.user-is-warned-about-forbidden-words":  "$sender, no forbidden words [$count warnings left]",
	"moderation.user-have-timeout-for-links":           "$sender, no links allowed, ask for !permit",
	"moderation.user-have-timeout-for-symbols":         "$sender, no excessive symbols usage",
	"moderation.user-have-timeout-for-long-message":    "$sender, long messages are not allowed",
	"moderation.user-have-timeout-for-caps":            "$sender, stop talking in capital letters",
	"moderation.user-have-timeout-for-spam":            "$sender, stop spamming",
	"moderation.user-have-timeout-for-color":           "$sender, you are not allowed to use /me",
	"moderation.user-have-timeout-for-emotes":          "$sender, stop spamming emotes",
	"moderation.user-have-timeout-for-forbidden-words": "$sender, no forbidden words",
}
