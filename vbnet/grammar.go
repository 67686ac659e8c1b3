package vbnet

import . "github.com/dhamidi/vbsitter/grammar"

// Name is the grammar name hosts look the language up by.
const Name = "vb_dotnet"

var kw = Keyword

// newline matches a line break inside tokens that allow one.
const newline = `\r?\n`

// comma allows a line break after it.
var comma = Token(Seq(Str(","), Optional(Pattern(newline))))

func commaSep1(r Rule) Rule {
	return Seq(r, Repeat(Seq(comma, r)))
}

func commaSep(r Rule) Rule { return Optional(commaSep1(r)) }

func kws(words ...string) Rule {
	rules := make([]Rule, len(words))
	for i, w := range words {
		rules[i] = kw(w)
	}
	return Choice(rules...)
}

func strs(values ...string) Rule {
	rules := make([]Rule, len(values))
	for i, v := range values {
		rules[i] = Str(v)
	}
	return Choice(rules...)
}

// body is a statement list closed by End <word>.
func body(word string) Rule {
	return Seq(Repeat(Sym("statement")), kw("End"), kw(word), Sym("_terminator"))
}

// NewGrammar returns the VB.NET grammar. Every call returns a fresh value.
func NewGrammar() *Grammar {
	g := New(Name)
	g.Extras = []Rule{
		Sym("comment"),
		Pattern(`[ \t\f\x{00A0}]+`),
		Sym("_line_continuation"),
	}
	g.Conflicts = [][]string{
		{"type", "invocation"},
		{"type"},
		{"new_expression"},
		{"type_argument_list"},
		{"property_declaration"},
		{"constructor_declaration"},
		{"method_declaration"},
		{"left_hand_side", "expression"},
		{"label_statement", "expression"},
		{"event_declaration"},
		{"if_statement"},
	}

	defineDeclarations(g)
	defineStatements(g)
	defineExpressions(g)
	defineTokens(g)
	return g
}

func defineDeclarations(g *Grammar) {
	g.Define("source_file", Seq(
		Optional(Sym("option_statements")),
		Repeat(Sym("imports_statement")),
		Repeat(Choice(
			Sym("attribute_block"),
			Sym("namespace_block"),
			Sym("type_declaration"),
			Alias(Sym("_terminator"), "blank_line", true),
		)),
	))

	g.Define("option_statements", Repeat1(Seq(
		kw("Option"),
		Choice(
			Seq(kw("Explicit"), kws("On", "Off")),
			Seq(kw("Strict"), kws("On", "Off")),
			Seq(kw("Infer"), kws("On", "Off")),
			Seq(kw("Compare"), kws("Binary", "Text")),
		),
		Sym("_terminator"),
	)))

	g.Define("imports_statement", Seq(
		kw("Imports"),
		commaSep1(Field("namespace", Sym("namespace_name"))),
		Sym("_terminator"),
	))

	g.Define("namespace_name", Seq(Sym("identifier"), Repeat(Seq(Str("."), Sym("identifier")))))

	g.Define("type_declaration", Choice(
		Sym("class_block"),
		Sym("module_block"),
		Sym("structure_block"),
		Sym("interface_block"),
		Sym("enum_block"),
		Sym("delegate_declaration"),
	))

	g.Define("namespace_block", Seq(
		kw("Namespace"),
		Field("name", Sym("namespace_name")),
		Sym("_terminator"),
		Repeat(Choice(Sym("attribute_block"), Sym("type_declaration"), Sym("namespace_block"))),
		kw("End"), kw("Namespace"), Sym("_terminator"),
	))

	modifiers := Optional(Field("modifiers", Sym("modifiers")))
	attributes := Optional(Field("attributes", Sym("attribute_block")))
	members := Repeat(Sym("_member_declaration"))

	g.Define("class_block", Seq(
		modifiers,
		kw("Class"),
		Field("name", Sym("identifier")),
		Optional(Sym("type_parameters")),
		Optional(Field("inherits", Sym("inherits_clause"))),
		Optional(Field("implements", Sym("implements_clause"))),
		Sym("_terminator"),
		members,
		kw("End"), kw("Class"), Sym("_terminator"),
	))

	g.Define("module_block", Seq(
		modifiers,
		kw("Module"),
		Field("name", Sym("identifier")),
		Sym("_terminator"),
		members,
		kw("End"), kw("Module"), Sym("_terminator"),
	))

	g.Define("structure_block", Seq(
		modifiers,
		kw("Structure"),
		Field("name", Sym("identifier")),
		Optional(Sym("type_parameters")),
		Optional(Field("implements", Sym("implements_clause"))),
		Sym("_terminator"),
		members,
		kw("End"), kw("Structure"), Sym("_terminator"),
	))

	g.Define("interface_block", Seq(
		modifiers,
		kw("Interface"),
		Field("name", Sym("identifier")),
		Optional(Sym("type_parameters")),
		Optional(Field("inherits", Sym("inherits_clause"))),
		Sym("_terminator"),
		members,
		kw("End"), kw("Interface"), Sym("_terminator"),
	))

	g.Define("enum_block", Seq(
		modifiers,
		kw("Enum"),
		Field("name", Sym("identifier")),
		Sym("_terminator"),
		Repeat(Sym("enum_member")),
		kw("End"), kw("Enum"), Sym("_terminator"),
	))

	g.Define("enum_member", Seq(
		Field("name", Sym("identifier")),
		Optional(Seq(Str("="), Field("value", Sym("expression")))),
		Sym("_terminator"),
	))

	g.Define("delegate_declaration", Seq(
		modifiers,
		kw("Delegate"),
		kws("Sub", "Function"),
		Field("name", Sym("identifier")),
		Optional(Sym("type_parameters")),
		Field("parameters", Sym("parameter_list")),
		Optional(Seq(kw("As"), Field("return_type", Sym("type")))),
		Sym("_terminator"),
	))

	g.Define("inherits_clause", Seq(kw("Inherits"), commaSep1(Sym("type"))))
	g.Define("implements_clause", Seq(kw("Implements"), commaSep1(Sym("type"))))

	g.Define("type_parameters", Seq(kw("Of"), commaSep1(Sym("type_parameter"))))
	g.Define("type_parameter", Seq(
		Field("name", Sym("identifier")),
		Optional(Seq(kw("As"), Field("constraint", Sym("type_constraint")))),
	))
	g.Define("type_constraint", Choice(Sym("type"), kw("Structure"), kw("Class"), kw("New")))

	g.Define("attribute_block", Seq(Str("<"), commaSep1(Sym("attribute")), Str(">"), Sym("_terminator")))
	g.Define("attribute", Seq(
		Optional(Seq(Field("target", Sym("identifier")), Str(":"))),
		Field("name", Sym("identifier")),
		Optional(Sym("argument_list")),
	))

	g.Define("modifiers", Repeat1(Sym("modifier")))
	g.Define("modifier", Token(kws(
		"Public", "Private", "Protected", "Friend",
		"Shared", "Shadows", "Static",
		"Overloads", "Overrides", "Overridable", "NotOverridable", "MustOverride",
		"MustInherit", "NotInheritable",
		"Partial", "Narrowing", "Widening",
		"Default",
		"ReadOnly", "WriteOnly",
		"WithEvents", "Async", "Iterator",
	)))

	g.Define("_member_declaration", Choice(
		Alias(Sym("_terminator"), "blank_line", true),
		Sym("const_declaration"),
		Sym("field_declaration"),
		Sym("method_declaration"),
		Sym("constructor_declaration"),
		Sym("property_declaration"),
		Sym("event_declaration"),
		Sym("delegate_declaration"),
	))

	g.Define("const_declaration", Seq(
		attributes,
		modifiers,
		kw("Const"),
		commaSep1(Seq(
			Field("name", Sym("identifier")),
			Optional(Sym("as_clause")),
			Str("="),
			Field("value", Sym("expression")),
		)),
		Sym("_terminator"),
	))

	g.Define("field_declaration", Seq(
		attributes,
		modifiers,
		Optional(kw("Dim")),
		commaSep1(Sym("variable_declarator")),
		Sym("_terminator"),
	))
	g.Define("variable_declarator", Seq(
		Field("name", Sym("identifier")),
		Optional(Sym("array_rank_specifier")),
		Optional(Sym("as_clause")),
		Optional(Seq(Str("="), Field("initializer", Sym("expression")))),
	))
	g.Define("array_rank_specifier", Seq(Str("("), Repeat(Str(",")), Str(")")))
	g.Define("as_clause", Seq(kw("As"), Field("type", Sym("type"))))

	g.Define("type", Choice(
		Sym("primitive_type"),
		Seq(Sym("namespace_name"), Optional(Sym("type_argument_list")), Optional(Sym("array_rank_specifier"))),
	))
	g.Define("primitive_type", Token(kws(
		"Boolean", "Byte", "Short", "Integer", "Long",
		"Single", "Double", "Decimal",
		"Char", "String",
		"Object", "Date",
	)))
	g.Define("type_argument_list", Seq(kw("Of"), commaSep1(Sym("type"))))

	g.Define("method_declaration", Seq(
		attributes,
		modifiers,
		kws("Sub", "Function"),
		Field("name", Sym("identifier")),
		Optional(Sym("type_parameters")),
		Field("parameters", Sym("parameter_list")),
		Optional(Seq(kw("As"), Field("return_type", Sym("type")))),
		Choice(
			Seq(Sym("_terminator"), Repeat(Sym("statement")), kw("End"), kws("Sub", "Function"), Sym("_terminator")),
			Sym("_terminator"),
		),
	))

	g.Define("constructor_declaration", Seq(
		attributes,
		modifiers,
		kw("Sub"), kw("New"),
		Field("parameters", Sym("parameter_list")),
		Choice(
			Seq(Sym("_terminator"), body("Sub")),
			Sym("_terminator"),
		),
	))

	g.Define("property_declaration", Seq(
		attributes,
		modifiers,
		kw("Property"),
		Field("name", Sym("identifier")),
		Optional(Field("parameters", Sym("parameter_list"))),
		Optional(Sym("as_clause")),
		Choice(
			Seq(Optional(Seq(Str("="), Field("initializer", Sym("expression")))), Sym("_terminator")),
			Seq(
				Sym("_terminator"),
				Optional(Sym("get_accessor")),
				Optional(Sym("set_accessor")),
				kw("End"), kw("Property"), Sym("_terminator"),
			),
		),
	))
	g.Define("get_accessor", Seq(modifiers, kw("Get"), Sym("_terminator"), body("Get")))
	g.Define("set_accessor", Seq(
		modifiers,
		kw("Set"),
		Optional(Field("parameters", Sym("parameter_list"))),
		Sym("_terminator"),
		body("Set"),
	))

	g.Define("event_declaration", Seq(
		attributes,
		modifiers,
		kw("Event"),
		Field("name", Sym("identifier")),
		Choice(
			Seq(Optional(Sym("parameter_list")), Optional(Sym("as_clause")), Sym("_terminator")),
			Seq(
				Sym("parameter_list"), Sym("as_clause"), Sym("_terminator"),
				Repeat(Choice(Sym("add_handler_block"), Sym("remove_handler_block"), Sym("raise_event_block"))),
				kw("End"), kw("Event"), Sym("_terminator"),
			),
		),
	))
	for _, h := range []struct{ name, word string }{
		{"add_handler_block", "AddHandler"},
		{"remove_handler_block", "RemoveHandler"},
		{"raise_event_block", "RaiseEvent"},
	} {
		g.Define(h.name, Seq(modifiers, kw(h.word), Sym("_terminator"), body(h.word)))
	}

	g.Define("parameter_list", Seq(Str("("), commaSep(Sym("parameter")), Str(")")))
	g.Define("parameter", Seq(
		Optional(kws("ByVal", "ByRef", "ParamArray")),
		Field("name", Sym("identifier")),
		Optional(Sym("array_rank_specifier")),
		Optional(Sym("as_clause")),
		Optional(Seq(Str("="), Field("default_value", Sym("expression")))),
	))
}

func defineStatements(g *Grammar) {
	g.Define("statement", Choice(
		Sym("empty_statement"),
		Sym("label_statement"),
		Sym("dim_statement"),
		Sym("const_declaration"),
		Prec(1, Sym("assignment_statement")),
		Sym("call_statement"),
		Sym("if_statement"),
		Sym("select_case_statement"),
		Sym("while_statement"),
		Sym("do_statement"),
		Sym("for_statement"),
		Sym("for_each_statement"),
		Sym("try_statement"),
		Sym("with_statement"),
		Sym("using_statement"),
		Sym("sync_lock_statement"),
		Sym("return_statement"),
		Sym("exit_statement"),
		Sym("continue_statement"),
		Sym("throw_statement"),
		Sym("goto_statement"),
		Sym("redim_statement"),
		Sym("preprocessor_directive"),
	))

	g.Define("empty_statement", Prec(1, Sym("_terminator")))
	g.Define("label_statement", Seq(Field("label", Sym("identifier")), Str(":")))

	g.Define("dim_statement", Seq(
		kw("Dim"),
		commaSep1(Seq(
			Field("name", Sym("identifier")),
			Optional(Sym("as_clause")),
			Optional(Seq(Str("="), Field("initializer", Sym("expression")))),
		)),
		Sym("_terminator"),
	))

	g.Define("assignment_statement", PrecDynamic(1, Seq(
		Field("left", Sym("left_hand_side")),
		Str("="),
		Field("right", Sym("expression")),
		Sym("_terminator"),
	)))
	g.Define("left_hand_side", Choice(Sym("identifier"), Sym("member_access"), Sym("element_access")))

	g.Define("call_statement", Seq(
		Choice(Seq(kw("Call"), Sym("expression")), Sym("expression")),
		Sym("_terminator"),
	))

	g.Define("if_statement", Choice(
		Seq(
			kw("If"), Field("condition", Sym("expression")), kw("Then"),
			Field("then_branch", Sym("statement")),
			Optional(Seq(kw("Else"), Field("else_branch", Sym("statement")))),
		),
		Seq(
			kw("If"), Field("condition", Sym("expression")), kw("Then"), Sym("_terminator"),
			Repeat(Sym("statement")),
			Repeat(Sym("elseif_clause")),
			Optional(Sym("else_clause")),
			kw("End"), kw("If"), Sym("_terminator"),
		),
	))
	g.Define("elseif_clause", Seq(
		kw("ElseIf"), Field("condition", Sym("expression")), kw("Then"), Sym("_terminator"),
		Repeat(Sym("statement")),
	))
	g.Define("else_clause", Seq(kw("Else"), Sym("_terminator"), Repeat(Sym("statement"))))

	g.Define("select_case_statement", Seq(
		kw("Select"), kw("Case"), Field("selector", Sym("expression")), Sym("_terminator"),
		Repeat(Sym("case_block")),
		Optional(Sym("case_else_block")),
		kw("End"), kw("Select"), Sym("_terminator"),
	))
	g.Define("case_block", Seq(kw("Case"), commaSep1(Sym("case_clause")), Sym("_terminator"), Repeat(Sym("statement"))))
	g.Define("case_else_block", Seq(kw("Case"), kw("Else"), Sym("_terminator"), Repeat(Sym("statement"))))
	g.Define("case_clause", Choice(
		Sym("expression"),
		Seq(Sym("expression"), kw("To"), Sym("expression")),
		Seq(kw("Is"), Sym("relational_operator"), Sym("expression")),
	))
	g.Define("relational_operator", Token(strs("=", "<>", "<", ">", "<=", ">=")))

	g.Define("while_statement", Seq(
		kw("While"), Field("condition", Sym("expression")), Sym("_terminator"),
		body("While"),
	))

	loopCondition := Choice(Seq(kw("While"), Sym("expression")), Seq(kw("Until"), Sym("expression")))
	g.Define("do_statement", Choice(
		Seq(kw("Do"), Sym("_terminator"),
			Repeat(Sym("statement")),
			kw("Loop"), Optional(loopCondition), Sym("_terminator")),
		Seq(kw("Do"), loopCondition, Sym("_terminator"),
			Repeat(Sym("statement")),
			kw("Loop"), Sym("_terminator")),
	))

	next := Seq(kw("Next"), Optional(Alias(Sym("identifier"), "variable", true)), Sym("_terminator"))
	g.Define("for_statement", Seq(
		kw("For"),
		Field("variable", Sym("identifier")), Str("="), Field("start", Sym("expression")),
		kw("To"), Field("end", Sym("expression")),
		Optional(Seq(kw("Step"), Field("step", Sym("expression")))),
		Sym("_terminator"),
		Repeat(Sym("statement")),
		next,
	))
	g.Define("for_each_statement", Seq(
		kw("For"), kw("Each"),
		Field("variable", Sym("identifier")),
		kw("In"),
		Field("collection", Sym("expression")),
		Sym("_terminator"),
		Repeat(Sym("statement")),
		next,
	))

	g.Define("try_statement", Seq(
		kw("Try"), Sym("_terminator"),
		Repeat(Sym("statement")),
		Repeat(Sym("catch_block")),
		Optional(Sym("finally_block")),
		kw("End"), kw("Try"), Sym("_terminator"),
	))
	g.Define("catch_block", Seq(
		kw("Catch"),
		Optional(Seq(
			Field("exception", Sym("identifier")),
			Optional(Seq(kw("As"), Field("type", Sym("type")))),
		)),
		Optional(Seq(kw("When"), Field("filter", Sym("expression")))),
		Sym("_terminator"),
		Repeat(Sym("statement")),
	))
	g.Define("finally_block", Seq(kw("Finally"), Sym("_terminator"), Repeat(Sym("statement"))))

	g.Define("with_statement", Seq(
		kw("With"), Field("target", Sym("expression")), Sym("_terminator"),
		body("With"),
	))
	g.Define("using_statement", Seq(
		kw("Using"),
		Choice(
			Seq(Field("resource", Sym("identifier")), Sym("as_clause"), Str("="), Field("value", Sym("expression"))),
			Field("value", Sym("expression")),
		),
		Sym("_terminator"),
		body("Using"),
	))
	g.Define("sync_lock_statement", Seq(
		kw("SyncLock"), Field("lock", Sym("expression")), Sym("_terminator"),
		body("SyncLock"),
	))

	g.Define("return_statement", Seq(kw("Return"), Optional(Sym("expression")), Sym("_terminator")))
	g.Define("exit_statement", Seq(
		kw("Exit"),
		kws("Sub", "Function", "Property", "Do", "For", "While", "Select", "Try"),
		Sym("_terminator"),
	))
	g.Define("continue_statement", Seq(kw("Continue"), kws("Do", "For", "While"), Sym("_terminator")))
	g.Define("throw_statement", Seq(kw("Throw"), Optional(Sym("expression")), Sym("_terminator")))
	g.Define("goto_statement", Seq(kw("GoTo"), Field("label", Sym("identifier")), Sym("_terminator")))

	g.Define("redim_statement", Seq(
		kw("ReDim"),
		Optional(kw("Preserve")),
		commaSep1(Seq(Field("array", Sym("identifier")), Sym("redim_clause"))),
		Sym("_terminator"),
	))
	g.Define("redim_clause", Seq(
		Str("("), Field("upper_bound", Sym("expression")), Optional(Seq(kw("To"), Sym("expression"))), Str(")"),
	))
}

// binaryOperators lists operator groups from tightest to loosest binding.
var binaryOperators = []struct {
	prec      int
	operators []Rule
}{
	{7, []Rule{Str("^")}},
	{6, []Rule{Str("*"), Str("/"), Str(`\`), kw("Mod")}},
	{5, []Rule{Str("+"), Str("-")}},
	{4, []Rule{Str("&")}},
	{3, []Rule{Str("<<"), Str(">>")}},
	{2, []Rule{Str("="), Str("<>"), Str("<"), Str(">"), Str("<="), Str(">="), kw("Is"), kw("IsNot"), kw("Like")}},
	{1, []Rule{kw("TypeOf")}},
	{0, []Rule{kw("And"), kw("Or"), kw("Xor")}},
	{-1, []Rule{kw("AndAlso"), kw("OrElse")}},
}

func defineExpressions(g *Grammar) {
	g.Define("expression", Choice(
		Sym("literal"),
		Sym("identifier"),
		Sym("parenthesized_expression"),
		Sym("member_access"),
		Sym("element_access"),
		Sym("invocation"),
		Sym("unary_expression"),
		Sym("binary_expression"),
		Sym("ternary_expression"),
		Sym("new_expression"),
	))

	g.Define("parenthesized_expression", Seq(Str("("), Sym("expression"), Str(")")))

	g.Define("invocation", PrecLeft(1, Seq(
		Field("target", Choice(Sym("member_access"), Sym("identifier"))),
		Field("arguments", Sym("argument_list")),
	)))
	g.Define("argument_list", Seq(Str("("), commaSep(Sym("argument")), Str(")")))
	g.Define("argument", Choice(
		Sym("expression"),
		Seq(Field("name", Sym("identifier")), Str(":"), Str("="), Sym("expression")),
	))

	g.Define("member_access", Seq(
		Field("object", Sym("expression")),
		Token(Seq(Str("."), Optional(Pattern(newline)))),
		Field("member", Sym("identifier")),
	))
	g.Define("element_access", Seq(
		Field("object", Sym("expression")),
		Str("("),
		commaSep(Field("index", Sym("expression"))),
		Str(")"),
	))

	g.Define("new_expression", Seq(
		kw("New"),
		Field("type", Sym("type")),
		Optional(Sym("argument_list")),
		Optional(Sym("object_initializers")),
	))
	g.Define("object_initializers", Seq(Str("{"), commaSep(Sym("object_initializer")), Str("}")))
	g.Define("object_initializer", Choice(
		Seq(Str("."), Sym("identifier"), Str("="), Sym("expression")),
		Sym("expression"),
	))

	g.Define("unary_expression", Prec(8, Seq(
		Field("operator", Choice(kw("Not"), kw("AddressOf"), Str("-"), Str("+"))),
		Field("operand", Sym("expression")),
	)))

	alternatives := make([]Rule, len(binaryOperators))
	for i, level := range binaryOperators {
		alternatives[i] = PrecLeft(level.prec, Seq(
			Field("left", Sym("expression")),
			Field("operator", Choice(level.operators...)),
			Field("right", Sym("expression")),
		))
	}
	g.Define("binary_expression", Choice(alternatives...))

	g.Define("ternary_expression", PrecRight(0, Seq(
		kw("If"),
		Str("("),
		Field("condition", Sym("expression")), comma,
		Field("true_branch", Sym("expression")), comma,
		Field("false_branch", Sym("expression")),
		Str(")"),
	)))

	g.Define("literal", Choice(
		Sym("boolean_literal"),
		Sym("integer_literal"),
		Sym("floating_point_literal"),
		Sym("string_literal"),
		Sym("character_literal"),
		Sym("date_literal"),
		kw("Nothing"),
	))
}

func defineTokens(g *Grammar) {
	g.Define("preprocessor_directive", Token(Seq(Str("#"), Pattern(`[^\r\n]*`))))

	g.Define("boolean_literal", Token(kws("True", "False")))
	g.Define("integer_literal", Token(Choice(
		Pattern(`(?i:\d+(?:US|UI|UL|S|I|L|%|&)?)`),
		Pattern(`(?i:&H[0-9A-F]+(?:US|UI|UL|S|I|L|%|&)?)`),
		Pattern(`(?i:&O[0-7]+(?:US|UI|UL|S|I|L|%|&)?)`),
	)))
	g.Define("floating_point_literal", Token(Choice(
		Pattern(`\d+\.\d+(?:[Ee][+-]?\d+)?[FfRrDd!#@]?`),
		Pattern(`\.\d+(?:[Ee][+-]?\d+)?[FfRrDd!#@]?`),
		Pattern(`\d+[Ee][+-]?\d+[FfRrDd!#@]?`),
		Pattern(`\d+[FfRrDd!#@]`),
	)))
	g.Define("string_literal", Token(Seq(Str(`"`), Repeat(Choice(Pattern(`[^"\r\n]`), Str(`""`))), Str(`"`))))
	g.Define("character_literal", Token(Seq(
		Str(`"`), Choice(Pattern(`[^"\r\n]`), Str(`""`)), Str(`"`), Pattern(`[cC]`),
	)))
	g.Define("date_literal", Token(Seq(Str("#"), Pattern(`[0-9/\-:\sAPMapm]+`), Str("#"))))

	g.Define("identifier", Token(Choice(
		Pattern(`\[[^\]\r\n]+\]`),
		Pattern(`[A-Za-z_][A-Za-z_0-9]*[$%&@#!]?`),
	)))

	// A REM comment needs a separator so that words like Remove stay
	// identifiers.
	g.Define("comment", Token(Prec(1, Choice(
		Seq(Str("'"), Pattern(`[^\r\n]*`)),
		Seq(StrFold("REM"), Optional(Seq(Pattern(`[ \t]`), Pattern(`[^\r\n]*`)))),
	))))

	g.Define("_newline", Pattern(newline))
	g.Define("_line_continuation", Token(Seq(Str("_"), Pattern(`[ \t]*`), Pattern(newline))))
	g.Define("_terminator", Choice(Sym("_newline"), Str(":")))
}
