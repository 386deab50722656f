package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jihwankim/styleinfer/pkg/style"
)

// clangFormatEvolution is the embedded, additive/subtractive clang-format
// option history, consulted only when the live formatter cannot be asked
// directly (spec §4.5, §6's option-history grammar). It is the real
// CLANG_FORMAT_EVOLUTION table grounded on whatstyle.py (original lines
// 1597-2000), covering clang-format releases 3.5 through 7 verbatim — not a
// paraphrase or hand-picked subset.
//
// Grammar, per spec §6: "#" introduces a version boundary ("# Clang 3.5");
// "+ Name Type" adds an option, "- Name Type" removes it; indented lines
// either list an enum's permissible values (one bare word per line) or a
// nested option's sub-options ("bool SubName", one type-then-name pair per
// line).
const clangFormatEvolution = `
# Clang 3.5
+ BasedOnStyle string
        LLVM
        Google
        Chromium
        Mozilla
        WebKit
+ AccessModifierOffset int
+ AlignEscapedNewlinesLeft bool
+ AlignTrailingComments bool
+ AllowAllParametersOfDeclarationOnNextLine bool
+ AllowShortFunctionsOnASingleLine bool
+ AllowShortIfStatementsOnASingleLine bool
+ AllowShortLoopsOnASingleLine bool
+ AlwaysBreakBeforeMultilineStrings bool
+ AlwaysBreakTemplateDeclarations bool
+ BinPackParameters bool
+ BreakBeforeBinaryOperators bool
+ BreakBeforeBraces BraceBreakingStyle
        Attach
        Linux
        Stroustrup
        Allman
+ BreakBeforeTernaryOperators bool
+ BreakConstructorInitializersBeforeComma bool
+ ColumnLimit unsigned
+ ConstructorInitializerAllOnOneLineOrOnePerLine bool
+ ConstructorInitializerIndentWidth unsigned
+ ContinuationIndentWidth unsigned
+ Cpp11BracedListStyle bool
+ DerivePointerBinding bool
+ ExperimentalAutoDetectBinPacking bool
+ IndentCaseLabels bool
+ IndentFunctionDeclarationAfterType bool
+ IndentWidth unsigned
+ MaxEmptyLinesToKeep unsigned
+ NamespaceIndentation NamespaceIndentationKind
        None
        Inner
        All
+ ObjCSpaceBeforeProtocolList bool
+ PenaltyBreakBeforeFirstCallParameter unsigned
+ PenaltyBreakComment unsigned
+ PenaltyBreakFirstLessLess unsigned
+ PenaltyBreakString unsigned
+ PenaltyExcessCharacter unsigned
+ PenaltyReturnTypeOnItsOwnLine unsigned
+ PointerBindsToType bool
+ SpaceAfterControlStatementKeyword bool
+ SpaceBeforeAssignmentOperators bool
+ SpaceInEmptyParentheses bool
+ SpacesBeforeTrailingComments unsigned
+ SpacesInAngles bool
+ SpacesInCStyleCastParentheses bool
+ SpacesInParentheses bool
+ Standard LanguageStandard
        Cpp03
        Cpp11
        Auto
+ TabWidth unsigned
+ UseTab UseTabStyle
        Never
        ForIndentation
        Always
# Clang 3.5
+ Language LanguageKind
        None
        Cpp
        JavaScript
# Clang 3.5
- SpaceAfterControlStatementKeyword bool
+ SpaceBeforeParens SpaceBeforeParensOptions
        Never
        ControlStatements
        Always
# Clang 3.5
+ BasedOnStyle string
        LLVM
        Google
        Chromium
        Mozilla
        WebKit
        GNU
+ IndentBlocks bool
# Clang 3.5
- IndentBlocks bool
# Clang 3.5
+ BreakBeforeBraces BraceBreakingStyle
        Attach
        Linux
        Stroustrup
        Allman
        GNU
# Clang 3.5
+ CommentPragmas std::string
# Clang 3.5
+ SpacesInContainerLiterals bool
# Clang 3.5
+ Language LanguageKind
        None
        Cpp
        JavaScript
        Proto
# Clang 3.5
+ ObjCSpaceAfterProperty bool
# Clang 3.5
+ KeepEmptyLinesAtTheStartOfBlocks bool
# Clang 3.5
+ ForEachMacros std::vector<std::string>
# Clang 3.5
+ AllowShortFunctionsOnASingleLine ShortFunctionStyle
        None
        Inline
        All
# Clang 3.5
+ AllowShortBlocksOnASingleLine bool
# Clang 3.5
+ DisableFormat bool
# Clang 3.5
- DerivePointerBinding bool
- PointerBindsToType bool
+ DerivePointerAlignment bool
+ PointerAlignment PointerAlignmentStyle
        Left
        Right
        Middle
# Clang 3.5
- IndentFunctionDeclarationAfterType bool
# Clang 3.5
+ IndentWrappedFunctionNames bool
# Clang 3.6
+ AlwaysBreakAfterDefinitionReturnType bool
# Clang 3.6
+ SpacesInSquareBrackets bool
# Clang 3.6
+ SpaceAfterCStyleCast bool
# Clang 3.6
+ AllowShortCaseLabelsOnASingleLine bool
# Clang 3.6
+ BreakBeforeBinaryOperators BinaryOperatorStyle
        None
        NonAssignment
        All
# Clang 3.6
+ Language LanguageKind
        None
        Cpp
        Java
        JavaScript
        Proto
# Clang 3.6
+ BinPackArguments bool
# Clang 3.6
+ ObjCBlockIndentWidth unsigned
# Clang 3.6
+ AlignAfterOpenBracket bool
# Clang 3.6
+ AllowShortFunctionsOnASingleLine ShortFunctionStyle
        None
        Inline
        Empty
        All
# Clang 3.6
+ AlignOperands bool
# Clang 3.7
+ AlignConsecutiveAssignments bool
# Clang 3.7
+ AllowShortFunctionsOnASingleLine ShortFunctionStyle
        None
        Empty
        Inline
        All
# Clang 3.7
+ AlwaysBreakAfterDefinitionReturnType DefinitionReturnTypeBreakingStyle
        None
        All
        TopLevel
# Clang 3.7
+ MacroBlockBegin std::string
+ MacroBlockEnd std::string
# Clang 3.7
+ BreakBeforeBraces BraceBreakingStyle
        Attach
        Linux
        Mozilla
        Stroustrup
        Allman
        GNU
# Clang 3.8
+ BreakBeforeBraces BraceBreakingStyle
        Attach
        Linux
        Mozilla
        Stroustrup
        Allman
        GNU
        WebKit
# Clang 3.8
+ IncludeCategories std::vector<std::pair<std::string, unsigned>>
# Clang 3.8
+ BraceWrapping BraceWrappingFlags
        bool AfterClass
        bool AfterControlStatement
        bool AfterEnum
        bool AfterFunction
        bool AfterNamespace
        bool AfterObjCDeclaration
        bool AfterStruct
        bool AfterUnion
        bool BeforeCatch
        bool BeforeElse
        bool IndentBraces
+ BreakBeforeBraces BraceBreakingStyle
        Attach
        Linux
        Mozilla
        Stroustrup
        Allman
        GNU
        WebKit
        Custom
# Clang 3.8
+ AlignConsecutiveDeclarations bool
# Clang 3.8
+ IncludeCategories std::vector<IncludeCategory>
# Clang 3.8
+ BreakAfterJavaFieldAnnotations bool
# Clang 3.8
+ AlignAfterOpenBracket BracketAlignmentStyle
        Align
        DontAlign
        AlwaysBreak
# Clang 3.8
+ SortIncludes bool
# Clang 3.8
+ ReflowComments bool
# Clang 3.8
+ AlwaysBreakAfterReturnType ReturnTypeBreakingStyle
        None
        All
        TopLevel
        AllDefinitions
        TopLevelDefinitions
# Clang 3.8
+ Language LanguageKind
        None
        Cpp
        Java
        JavaScript
        Proto
        TableGen
# Clang 3.9
+ BreakStringLiterals bool
# Clang 3.9
+ JavaScriptQuotes JavaScriptQuoteStyle
        Leave
        Single
        Double
# Clang 3.9
+ IncludeIsMainRegex std::string
# Clang 3.9
+ UseTab UseTabStyle
        Never
        ForIndentation
        ForContinuationAndIndentation
        Always
# Clang 3.9
+ JavaScriptWrapImports bool
# Clang 4.0
+ SpaceAfterTemplateKeyword bool
# Clang 4.0
+ Language LanguageKind
        None
        Cpp
        Java
        JavaScript
        ObjC
        Proto
        TableGen
# Clang 5
+ FixNamespaceComments bool
# Clang 5
+ BreakBeforeInheritanceComma bool
# Clang 5
- AlignEscapedNewlinesLeft bool
+ AlignEscapedNewlines EscapedNewlineAlignmentStyle
        DontAlign
        Left
        Right
# Clang 5
+ PenaltyBreakAssignment unsigned
# Clang 5
- BreakConstructorInitializersBeforeComma bool
+ AllowShortFunctionsOnASingleLine ShortFunctionStyle
        None
        InlineOnly
        Empty
        Inline
        All
+ BraceWrapping BraceWrappingFlags
        bool AfterClass
        bool AfterControlStatement
        bool AfterEnum
        bool AfterFunction
        bool AfterNamespace
        bool AfterObjCDeclaration
        bool AfterStruct
        bool AfterUnion
        bool BeforeCatch
        bool BeforeElse
        bool IndentBraces
        bool SplitEmptyFunctionBody
+ BreakConstructorInitializers BreakConstructorInitializersStyle
        BeforeColon
        BeforeComma
        AfterColon
+ CompactNamespaces bool
# Clang 5
+ SortUsingDeclarations bool
# Clang 5
+ BraceWrapping BraceWrappingFlags
        bool AfterClass
        bool AfterControlStatement
        bool AfterEnum
        bool AfterFunction
        bool AfterNamespace
        bool AfterObjCDeclaration
        bool AfterStruct
        bool AfterUnion
        bool BeforeCatch
        bool BeforeElse
        bool IndentBraces
        bool SplitEmptyFunction
        bool SplitEmptyRecord
        bool SplitEmptyNamespace
# Clang 5
+ Language LanguageKind
        None
        Cpp
        Java
        JavaScript
        ObjC
        Proto
        TableGen
        TextProto
# Clang 6
+ IndentPPDirectives PPDirectiveIndentStyle
        None
        AfterHash
# Clang 6
+ BraceWrapping BraceWrappingFlags
        bool AfterClass
        bool AfterControlStatement
        bool AfterEnum
        bool AfterFunction
        bool AfterNamespace
        bool AfterObjCDeclaration
        bool AfterStruct
        bool AfterUnion
        bool AfterExternBlock
        bool BeforeCatch
        bool BeforeElse
        bool IndentBraces
        bool SplitEmptyFunction
        bool SplitEmptyRecord
        bool SplitEmptyNamespace
# Clang 6
+ RawStringFormats std::vector<RawStringFormat>
# Clang 6
+ IncludeBlocks IncludeBlocksStyle
        Preserve
        Merge
        Regroup
# Clang 7
+ ObjCBinPackProtocolList BinPackStyle
        Auto
        Always
        Never
# Clang 7
+ SpaceBeforeCtorInitializerColon bool
+ SpaceBeforeInheritanceColon bool
+ SpaceBeforeRangeBasedForLoopColon bool
# Clang 7
- IncludeBlocks IncludeBlocksStyle
        Preserve
        Merge
        Regroup
- IncludeCategories std::vector<IncludeCategory>
- IncludeIsMainRegex std::string
# Clang 7
+ AlwaysBreakTemplateDeclarations BreakTemplateDeclarationsStyle
        No
        MultiLine
        Yes
+ PenaltyBreakTemplateDeclaration unsigned
# Clang 7
- BreakBeforeInheritanceComma bool
+ BreakInheritanceList BreakInheritanceListStyle
        BeforeColon
        BeforeComma
        AfterColon
# Clang 7
+ SpaceBeforeCpp11BracedList bool
`

// evolutionOp is one add/remove step read off clangFormatEvolution. block
// increments on every "# Clang ..." boundary line, including repeated
// boundaries for the same version string — the real history restates "#
// Clang 3.5" many times as successive, independently-dated patches against
// that release, and each such restatement is its own schema snapshot point
// (spec §6, §8-S6).
type evolutionOp struct {
	version string
	block   int
	add     bool
	option  style.Option
}

const versionBoundaryPrefix = "# Clang "

// parseEvolution reads history into a flat list of add/remove operations,
// each tagged with the version and block it belongs to.
func parseEvolution(history string) ([]evolutionOp, error) {
	var lines []string
	for _, l := range strings.Split(history, "\n") {
		t := strings.TrimSpace(l)
		if t != "" {
			lines = append(lines, t)
		}
	}

	var ops []evolutionOp
	version := ""
	block := -1

	for i := 0; i < len(lines); {
		line := lines[i]
		if strings.HasPrefix(line, versionBoundaryPrefix) {
			version = strings.TrimSpace(strings.TrimPrefix(line, versionBoundaryPrefix))
			block++
			i++
			continue
		}
		if line[0] != '+' && line[0] != '-' {
			return nil, fmt.Errorf("formatter: malformed evolution entry %q", line)
		}

		sign := line[0]
		rest := strings.TrimSpace(line[1:])
		sp := strings.IndexByte(rest, ' ')
		if sp < 0 {
			return nil, fmt.Errorf("formatter: malformed evolution entry %q", line)
		}
		name := rest[:sp]
		typeName := strings.TrimSpace(rest[sp+1:])
		i++

		var enumValues []string
		nested := style.NewStyleDef()
		hasNested := false
		for i < len(lines) {
			next := lines[i]
			if strings.HasPrefix(next, versionBoundaryPrefix) || next[0] == '+' || next[0] == '-' {
				break
			}
			fields := strings.Fields(next)
			switch len(fields) {
			case 1:
				enumValues = append(enumValues, fields[0])
			case 2:
				hasNested = true
				nested.Add(style.Option{Name: fields[1], Type: primitiveType(fields[0])})
			default:
				return nil, fmt.Errorf("formatter: malformed evolution value line %q", next)
			}
			i++
		}

		opt := style.Option{Name: name}
		switch {
		case hasNested:
			opt.Type = style.TypeNested
			opt.Nested = nested
		case len(enumValues) > 0:
			opt.Type = style.TypeEnum
			opt.Configs = enumValues
		default:
			opt.Type = primitiveType(typeName)
		}

		ops = append(ops, evolutionOp{version: version, block: block, add: sign == '+', option: opt})
	}
	return ops, nil
}

// primitiveType maps a bare type token to its OptionType. clang-format's own
// custom enum-carrier type names (BraceBreakingStyle, UseTabStyle, ...) never
// reach here: an option with listed enum values or nested sub-options is
// classified by that shape instead, regardless of its declared type name.
// "bool", "int" and "unsigned" map to their own types; anything left over —
// string types plus opaque container types like std::vector<...> — defaults
// to TypeString, since neither carries an
// enumerable variant set (spec §4.5's VariantsFor leaves such options alone).
func primitiveType(name string) style.OptionType {
	switch name {
	case "bool":
		return style.TypeBool
	case "int":
		return style.TypeInt
	case "unsigned":
		return style.TypeUnsigned
	default:
		return style.TypeString
	}
}

// schemaAtVersions replays ops in order and returns, for each block seen (in
// first-seen order), the cumulative schema as of that block: every op
// belonging to one block is applied before that block's schema is
// snapshotted, so a block with several +/- entries gets exactly one entry in
// the returned slices.
func schemaAtVersions(ops []evolutionOp) (versions []string, schemas []*style.StyleDef) {
	current := style.NewStyleDef()

	for i, op := range ops {
		if op.add {
			current.Add(op.option)
		} else {
			current.Delete(op.option.Name)
		}

		lastOpOfBlock := i == len(ops)-1 || ops[i+1].block != op.block
		if lastOpOfBlock {
			versions = append(versions, op.version)
			schemas = append(schemas, current.Copy())
		}
	}
	return versions, schemas
}

// BestMatchingSchema picks the embedded-history schema whose option set
// best matches liveOptionNames, the set of keys the live formatter's
// dump-config actually reported. Selection is by intersection size
// (primary), minimal unknown-option count (secondary), older version as a
// conservative tiebreak (spec §4.5).
func BestMatchingSchema(liveOptionNames []string) (version string, schema *style.StyleDef, err error) {
	ops, err := parseEvolution(clangFormatEvolution)
	if err != nil {
		return "", nil, err
	}
	versions, schemas := schemaAtVersions(ops)
	if len(versions) == 0 {
		return "", nil, fmt.Errorf("formatter: embedded evolution history is empty")
	}

	live := map[string]bool{}
	for _, n := range liveOptionNames {
		live[n] = true
	}

	bestIdx := -1
	bestIntersection := -1
	bestUnknown := 0
	for i, sch := range schemas {
		schemaNames := map[string]bool{}
		for _, opt := range sch.Options() {
			schemaNames[opt.Name] = true
		}

		intersection := 0
		for n := range live {
			if schemaNames[n] {
				intersection++
			}
		}
		unknown := len(live) - intersection

		better := intersection > bestIntersection ||
			(intersection == bestIntersection && unknown < bestUnknown) ||
			(intersection == bestIntersection && unknown == bestUnknown && bestIdx >= 0 && versionLess(versions[i], versions[bestIdx]))

		if bestIdx == -1 || better {
			bestIdx = i
			bestIntersection = intersection
			bestUnknown = unknown
		}
	}

	best := schemas[bestIdx].Copy()
	// Every live option unknown to the best-matching historical schema is
	// added as a plain boolean. Only option names reach this function, so
	// the value the live formatter reported for it is not consulted.
	for n := range live {
		if _, ok := best.Option(n); !ok {
			best.Add(style.Option{Name: n, Type: style.TypeBool})
		}
	}

	return versions[bestIdx], best, nil
}

// versionLess orders dotted/bare version strings numerically component by
// component, falling back to a string comparison if either side fails to
// parse (e.g. "trunk").
func versionLess(a, b string) bool {
	pa, pb := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(pa) && i < len(pb); i++ {
		na, erra := strconv.Atoi(pa[i])
		nb, errb := strconv.Atoi(pb[i])
		if erra != nil || errb != nil {
			return a < b
		}
		if na != nb {
			return na < nb
		}
	}
	return len(pa) < len(pb)
}
