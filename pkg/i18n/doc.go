// Package i18n translates message keys using YAML catalogs.
//
// Every catalog file holds one or more languages at its top level:
//
//	pt-BR:
//	  entitlement:
//	    errors:
//	      quota_exceeded: "Você atingiu o limite de gerações do seu plano."
//
// Nested keys are flattened with dots, so the message above is looked up as
// "entitlement.errors.quota_exceeded". Placeholders use the %{name} form and
// are filled from key/value pairs passed to T.
//
// Middleware picks the request language from the "lang" query parameter, the
// "lang" cookie or the Accept-Language header, in that order, matched against
// the loaded languages with golang.org/x/text/language.
package i18n
