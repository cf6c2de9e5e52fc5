// Package gs1 decodes GS1 barcode strings into their application
// identifier fields.
//
// Scanners deliver GS1-128 / DataMatrix content as a single string in which
// variable-length fields are terminated by the ASCII GS control character
// (0x1D) or by the next application identifier. Label printers and test
// fixtures often use the human-readable bracketed form instead, so both
// are accepted:
//
//	01106141410004151725123110LOT42   (bare, GS-separated)
//	(01)10614141000415(17)251231(10)LOT42
//
// Supported application identifiers:
//
//	01  GTIN (fixed 14 digits, optional mod-10 check-digit validation)
//	17  expiry date (YYMMDD bare; variable formats bracketed)
//	10  lot / batch number (variable)
//	21  serial number (variable)
//
// Unknown identifiers are skipped past their tag only, so malformed input
// cannot loop the scanner. Decode never fails hard: a string yielding no
// recognised field simply reports no record.
package gs1
