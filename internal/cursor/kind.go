package cursor

import "fmt"

// Kind classifies a cursor. Values follow libclang's CXCursorKind numbering
// so that the declaration, reference, expression and preprocessing groups
// stay contiguous ranges.
type Kind int

// Declarations.
const (
	KindUnexposedDecl                      Kind = 1
	KindStructDecl                         Kind = 2
	KindUnionDecl                          Kind = 3
	KindClassDecl                          Kind = 4
	KindEnumDecl                           Kind = 5
	KindFieldDecl                          Kind = 6
	KindEnumConstantDecl                   Kind = 7
	KindFunctionDecl                       Kind = 8
	KindVarDecl                            Kind = 9
	KindParmDecl                           Kind = 10
	KindObjCInterfaceDecl                  Kind = 11
	KindObjCCategoryDecl                   Kind = 12
	KindObjCProtocolDecl                   Kind = 13
	KindObjCPropertyDecl                   Kind = 14
	KindObjCIvarDecl                       Kind = 15
	KindObjCInstanceMethodDecl             Kind = 16
	KindObjCClassMethodDecl                Kind = 17
	KindObjCImplementationDecl             Kind = 18
	KindObjCCategoryImplDecl               Kind = 19
	KindTypedefDecl                        Kind = 20
	KindCXXMethod                          Kind = 21
	KindNamespace                          Kind = 22
	KindLinkageSpec                        Kind = 23
	KindConstructor                        Kind = 24
	KindDestructor                         Kind = 25
	KindConversionFunction                 Kind = 26
	KindTemplateTypeParameter              Kind = 27
	KindNonTypeTemplateParameter           Kind = 28
	KindTemplateTemplateParameter          Kind = 29
	KindFunctionTemplate                   Kind = 30
	KindClassTemplate                      Kind = 31
	KindClassTemplatePartialSpecialization Kind = 32
	KindNamespaceAlias                     Kind = 33
	KindUsingDirective                     Kind = 34
	KindUsingDeclaration                   Kind = 35
	KindTypeAliasDecl                      Kind = 36
	KindObjCSynthesizeDecl                 Kind = 37
	KindObjCDynamicDecl                    Kind = 38
	KindCXXAccessSpecifier                 Kind = 39
)

// References.
const (
	KindObjCSuperClassRef  Kind = 40
	KindObjCProtocolRef    Kind = 41
	KindObjCClassRef       Kind = 42
	KindTypeRef            Kind = 43
	KindCXXBaseSpecifier   Kind = 44
	KindTemplateRef        Kind = 45
	KindNamespaceRef       Kind = 46
	KindMemberRef          Kind = 47
	KindLabelRef           Kind = 48
	KindOverloadedDeclRef  Kind = 49
	KindVariableRef        Kind = 50
	KindFirstRef                = KindObjCSuperClassRef
	KindLastRef                 = KindVariableRef
)

// Expressions.
const (
	KindUnexposedExpr          Kind = 100
	KindDeclRefExpr            Kind = 101
	KindMemberRefExpr          Kind = 102
	KindCallExpr               Kind = 103
	KindObjCMessageExpr        Kind = 104
	KindBlockExpr              Kind = 105
	KindIntegerLiteral         Kind = 106
	KindFloatingLiteral        Kind = 107
	KindImaginaryLiteral       Kind = 108
	KindStringLiteral          Kind = 109
	KindCharacterLiteral       Kind = 110
	KindParenExpr              Kind = 111
	KindUnaryOperator          Kind = 112
	KindArraySubscriptExpr     Kind = 113
	KindBinaryOperator         Kind = 114
	KindCompoundAssignOperator Kind = 115
	KindConditionalOperator    Kind = 116
	KindCStyleCastExpr         Kind = 117
	KindCompoundLiteralExpr    Kind = 118
	KindInitListExpr           Kind = 119
)

// Statements.
const (
	KindUnexposedStmt Kind = 200
	KindLabelStmt     Kind = 201
	KindCompoundStmt  Kind = 202
	KindCaseStmt      Kind = 203
	KindDefaultStmt   Kind = 204
	KindIfStmt        Kind = 205
	KindSwitchStmt    Kind = 206
	KindWhileStmt     Kind = 207
	KindDoStmt        Kind = 208
	KindForStmt       Kind = 209
	KindGotoStmt      Kind = 210
	KindContinueStmt  Kind = 212
	KindBreakStmt     Kind = 213
	KindReturnStmt    Kind = 214
	KindDeclStmt      Kind = 231
)

// Translation unit, preprocessing.
const (
	KindTranslationUnit        Kind = 350
	KindPreprocessingDirective Kind = 500
	KindMacroDefinition        Kind = 501
	KindMacroInstantiation     Kind = 502
	KindInclusionDirective     Kind = 503
)

var kindNames = map[Kind]string{
	KindUnexposedDecl:                      "UNEXPOSED_DECL",
	KindStructDecl:                         "STRUCT_DECL",
	KindUnionDecl:                          "UNION_DECL",
	KindClassDecl:                          "CLASS_DECL",
	KindEnumDecl:                           "ENUM_DECL",
	KindFieldDecl:                          "FIELD_DECL",
	KindEnumConstantDecl:                   "ENUM_CONSTANT_DECL",
	KindFunctionDecl:                       "FUNCTION_DECL",
	KindVarDecl:                            "VAR_DECL",
	KindParmDecl:                           "PARM_DECL",
	KindObjCInterfaceDecl:                  "OBJC_INTERFACE_DECL",
	KindObjCCategoryDecl:                   "OBJC_CATEGORY_DECL",
	KindObjCProtocolDecl:                   "OBJC_PROTOCOL_DECL",
	KindObjCPropertyDecl:                   "OBJC_PROPERTY_DECL",
	KindObjCIvarDecl:                       "OBJC_IVAR_DECL",
	KindObjCInstanceMethodDecl:             "OBJC_INSTANCE_METHOD_DECL",
	KindObjCClassMethodDecl:                "OBJC_CLASS_METHOD_DECL",
	KindObjCImplementationDecl:             "OBJC_IMPLEMENTATION_DECL",
	KindObjCCategoryImplDecl:               "OBJC_CATEGORY_IMPL_DECL",
	KindTypedefDecl:                        "TYPEDEF_DECL",
	KindCXXMethod:                          "CXX_METHOD",
	KindNamespace:                          "NAMESPACE",
	KindLinkageSpec:                        "LINKAGE_SPEC",
	KindConstructor:                        "CONSTRUCTOR",
	KindDestructor:                         "DESTRUCTOR",
	KindConversionFunction:                 "CONVERSION_FUNCTION",
	KindTemplateTypeParameter:              "TEMPLATE_TYPE_PARAMETER",
	KindNonTypeTemplateParameter:           "TEMPLATE_NON_TYPE_PARAMETER",
	KindTemplateTemplateParameter:          "TEMPLATE_TEMPLATE_PARAMETER",
	KindFunctionTemplate:                   "FUNCTION_TEMPLATE",
	KindClassTemplate:                      "CLASS_TEMPLATE",
	KindClassTemplatePartialSpecialization: "CLASS_TEMPLATE_PARTIAL_SPECIALIZATION",
	KindNamespaceAlias:                     "NAMESPACE_ALIAS",
	KindUsingDirective:                     "USING_DIRECTIVE",
	KindUsingDeclaration:                   "USING_DECLARATION",
	KindTypeAliasDecl:                      "TYPE_ALIAS_DECL",
	KindObjCSynthesizeDecl:                 "OBJC_SYNTHESIZE_DECL",
	KindObjCDynamicDecl:                    "OBJC_DYNAMIC_DECL",
	KindCXXAccessSpecifier:                 "CXX_ACCESS_SPEC_DECL",

	KindObjCSuperClassRef: "OBJC_SUPER_CLASS_REF",
	KindObjCProtocolRef:   "OBJC_PROTOCOL_REF",
	KindObjCClassRef:      "OBJC_CLASS_REF",
	KindTypeRef:           "TYPE_REF",
	KindCXXBaseSpecifier:  "CXX_BASE_SPECIFIER",
	KindTemplateRef:       "TEMPLATE_REF",
	KindNamespaceRef:      "NAMESPACE_REF",
	KindMemberRef:         "MEMBER_REF",
	KindLabelRef:          "LABEL_REF",
	KindOverloadedDeclRef: "OVERLOADED_DECL_REF",
	KindVariableRef:       "VARIABLE_REF",

	KindUnexposedExpr:          "UNEXPOSED_EXPR",
	KindDeclRefExpr:            "DECL_REF_EXPR",
	KindMemberRefExpr:          "MEMBER_REF_EXPR",
	KindCallExpr:               "CALL_EXPR",
	KindObjCMessageExpr:        "OBJC_MESSAGE_EXPR",
	KindBlockExpr:              "BLOCK_EXPR",
	KindIntegerLiteral:         "INTEGER_LITERAL",
	KindFloatingLiteral:        "FLOATING_LITERAL",
	KindImaginaryLiteral:       "IMAGINARY_LITERAL",
	KindStringLiteral:          "STRING_LITERAL",
	KindCharacterLiteral:       "CHARACTER_LITERAL",
	KindParenExpr:              "PAREN_EXPR",
	KindUnaryOperator:          "UNARY_OPERATOR",
	KindArraySubscriptExpr:     "ARRAY_SUBSCRIPT_EXPR",
	KindBinaryOperator:         "BINARY_OPERATOR",
	KindCompoundAssignOperator: "COMPOUND_ASSIGNMENT_OPERATOR",
	KindConditionalOperator:    "CONDITIONAL_OPERATOR",
	KindCStyleCastExpr:         "CSTYLE_CAST_EXPR",
	KindCompoundLiteralExpr:    "COMPOUND_LITERAL_EXPR",
	KindInitListExpr:           "INIT_LIST_EXPR",

	KindUnexposedStmt: "UNEXPOSED_STMT",
	KindLabelStmt:     "LABEL_STMT",
	KindCompoundStmt:  "COMPOUND_STMT",
	KindCaseStmt:      "CASE_STMT",
	KindDefaultStmt:   "DEFAULT_STMT",
	KindIfStmt:        "IF_STMT",
	KindSwitchStmt:    "SWITCH_STMT",
	KindWhileStmt:     "WHILE_STMT",
	KindDoStmt:        "DO_STMT",
	KindForStmt:       "FOR_STMT",
	KindGotoStmt:      "GOTO_STMT",
	KindContinueStmt:  "CONTINUE_STMT",
	KindBreakStmt:     "BREAK_STMT",
	KindReturnStmt:    "RETURN_STMT",
	KindDeclStmt:      "DECL_STMT",

	KindTranslationUnit:        "TRANSLATION_UNIT",
	KindPreprocessingDirective: "PREPROCESSING_DIRECTIVE",
	KindMacroDefinition:        "MACRO_DEFINITION",
	KindMacroInstantiation:     "MACRO_INSTANTIATION",
	KindInclusionDirective:     "INCLUSION_DIRECTIVE",
}

// Name returns the bare enumerator name, e.g. "FUNCTION_DECL".
func (k Kind) Name() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND_%d", int(k))
}

// String returns the label written to index artifacts, e.g.
// "CursorKind.FUNCTION_DECL".
func (k Kind) String() string {
	return "CursorKind." + k.Name()
}

// IsDeclaration reports whether k is in the declaration group.
func (k Kind) IsDeclaration() bool {
	return k >= KindUnexposedDecl && k <= KindCXXAccessSpecifier
}

// IsReference reports whether k is in the reference group (TYPE_REF etc).
func (k Kind) IsReference() bool {
	return k >= KindFirstRef && k <= KindLastRef
}

// IsExpression reports whether k is in the expression group.
func (k Kind) IsExpression() bool {
	return k >= KindUnexposedExpr && k < KindUnexposedStmt
}

// IsPreprocessing reports whether k is a preprocessing cursor.
func (k Kind) IsPreprocessing() bool {
	return k >= KindPreprocessingDirective && k <= KindInclusionDirective
}
