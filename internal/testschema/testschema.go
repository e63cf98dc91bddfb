// Package testschema carries a design-document-flavored schema large
// enough to exercise the codec the way real files do: deep nesting,
// wide messages, every primitive, and arrays of nested definitions.
// The NodeChange message alone declares 142 fields.
//
// The schema compiles once on first use and the sample builder is
// deterministic, so benchmarks and tests that share it see identical
// bytes run to run.
package testschema

import (
	"fmt"
	"sync"

	"github.com/sketchkit/kiwi"
)

// Root is the definition name wrapper documents decode against.
const Root = "Message"

// Text is the schema source.
const Text = `package designfile;

enum MessageType {
  JOIN_START = 0;
  NODE_CHANGES = 1;
  USER_CHANGES = 2;
  JOIN_END = 3;
  SIGNAL = 4;
}

enum NodePhase {
  CREATED = 0;
  REMOVED = 1;
}

enum NodeType {
  NONE = 0;
  DOCUMENT = 1;
  CANVAS = 2;
  GROUP = 3;
  FRAME = 4;
  BOOLEAN_OPERATION = 5;
  VECTOR = 6;
  STAR = 7;
  LINE = 8;
  ELLIPSE = 9;
  RECTANGLE = 10;
  REGULAR_POLYGON = 11;
  ROUNDED_RECTANGLE = 12;
  TEXT = 13;
  SLICE = 14;
  SYMBOL = 15;
  INSTANCE = 16;
  STICKY = 17;
  SHAPE_WITH_TEXT = 18;
  CONNECTOR = 19;
  SECTION = 20;
}

enum BlendMode {
  PASS_THROUGH = 0;
  NORMAL = 1;
  DARKEN = 2;
  MULTIPLY = 3;
  LINEAR_BURN = 4;
  COLOR_BURN = 5;
  LIGHTEN = 6;
  SCREEN = 7;
  LINEAR_DODGE = 8;
  COLOR_DODGE = 9;
  OVERLAY = 10;
  SOFT_LIGHT = 11;
  HARD_LIGHT = 12;
  DIFFERENCE = 13;
  EXCLUSION = 14;
  HUE = 15;
  SATURATION = 16;
  COLOR = 17;
  LUMINOSITY = 18;
}

enum PaintType {
  SOLID = 0;
  GRADIENT_LINEAR = 1;
  GRADIENT_RADIAL = 2;
  GRADIENT_ANGULAR = 3;
  GRADIENT_DIAMOND = 4;
  IMAGE = 5;
  EMOJI = 6;
}

enum EffectType {
  INNER_SHADOW = 0;
  DROP_SHADOW = 1;
  FOREGROUND_BLUR = 2;
  BACKGROUND_BLUR = 3;
}

enum StrokeAlign {
  CENTER = 0;
  INSIDE = 1;
  OUTSIDE = 2;
}

enum StrokeCap {
  NONE = 0;
  ROUND = 1;
  SQUARE = 2;
  ARROW_LINES = 3;
  ARROW_EQUILATERAL = 4;
}

enum StrokeJoin {
  MITER = 0;
  BEVEL = 1;
  ROUND = 2;
}

enum WindingRule {
  NONZERO = 0;
  ODD = 1;
}

enum ConstraintType {
  MIN = 0;
  CENTER = 1;
  MAX = 2;
  STRETCH = 3;
  SCALE = 4;
}

enum StackMode {
  NONE = 0;
  HORIZONTAL = 1;
  VERTICAL = 2;
}

enum StackSizing {
  FIXED = 0;
  RESIZE_TO_FIT = 1;
  RESIZE_TO_FIT_WITH_IMPLICIT_SIZE = 2;
}

enum StackAlign {
  MIN = 0;
  CENTER = 1;
  MAX = 2;
  BASELINE = 3;
  AUTO = 4;
}

enum StackPositioning {
  AUTO = 0;
  ABSOLUTE = 1;
}

enum TextAlignHorizontal {
  LEFT = 0;
  CENTER = 1;
  RIGHT = 2;
  JUSTIFIED = 3;
}

enum TextAlignVertical {
  TOP = 0;
  CENTER = 1;
  BOTTOM = 2;
}

enum TextCase {
  ORIGINAL = 0;
  UPPER = 1;
  LOWER = 2;
  TITLE = 3;
}

enum TextDecoration {
  NONE = 0;
  UNDERLINE = 1;
  STRIKETHROUGH = 2;
}

enum LineHeightUnit {
  RAW = 0;
  PIXELS = 1;
  PERCENT = 2;
}

enum TextAutoResize {
  NONE = 0;
  WIDTH_AND_HEIGHT = 1;
  HEIGHT = 2;
}

enum LeadingTrim {
  NONE = 0;
  CAP_HEIGHT = 1;
}

enum MaskType {
  ALPHA = 0;
  OUTLINE = 1;
  LUMINANCE = 2;
}

enum HandleMirroring {
  NONE = 0;
  ANGLE = 1;
  ANGLE_AND_LENGTH = 2;
}

enum BooleanOperation {
  UNION = 0;
  INTERSECT = 1;
  SUBTRACT = 2;
  XOR = 3;
}

enum EasingType {
  IN_CUBIC = 0;
  OUT_CUBIC = 1;
  INOUT_CUBIC = 2;
  LINEAR = 3;
  GENTLE_SPRING = 4;
}

enum ScrollDirection {
  NONE = 0;
  HORIZONTAL = 1;
  VERTICAL = 2;
  BOTH = 3;
}

enum OverlayPositionType {
  CENTER = 0;
  TOP_LEFT = 1;
  TOP_CENTER = 2;
  TOP_RIGHT = 3;
  BOTTOM_LEFT = 4;
  BOTTOM_CENTER = 5;
  BOTTOM_RIGHT = 6;
  MANUAL = 7;
}

enum OverlayBackgroundInteraction {
  NONE = 0;
  CLOSE_ON_CLICK_OUTSIDE = 1;
}

enum ConnectorLineStyle {
  ELBOWED = 0;
  STRAIGHT = 1;
  CURVED = 2;
}

enum ShapeWithTextType {
  SQUARE = 0;
  ELLIPSE = 1;
  DIAMOND = 2;
  TRIANGLE_UP = 3;
  TRIANGLE_DOWN = 4;
  ROUNDED_RECTANGLE = 5;
  PARALLELOGRAM_RIGHT = 6;
  PARALLELOGRAM_LEFT = 7;
}

enum ScaleMode {
  FILL = 0;
  FIT = 1;
  TILE = 2;
  STRETCH = 3;
}

enum ImageType {
  PNG = 0;
  JPEG = 1;
  SVG = 2;
  PDF = 3;
}

enum ExportConstraintType {
  CONTENT_SCALE = 0;
  CONTENT_WIDTH = 1;
  CONTENT_HEIGHT = 2;
}

enum GridPattern {
  STRIPES = 0;
  GRID = 1;
  COLUMNS = 2;
  ROWS = 3;
}

enum DeviceRotation {
  NONE = 0;
  CCW_90 = 1;
}

enum NavigationType {
  NAVIGATE = 0;
  OVERLAY = 1;
  SWAP = 2;
  SCROLL_TO = 3;
}

struct GUID {
  uint sessionID;
  uint localID;
}

struct Color {
  float r;
  float g;
  float b;
  float a;
}

struct Vector {
  float x;
  float y;
}

struct Matrix {
  float m00;
  float m01;
  float m02;
  float m10;
  float m11;
  float m12;
}

struct ColorStop {
  Color color;
  float position;
}

struct FontName {
  string family;
  string style;
  string postscript;
}

struct ArcData {
  float startingAngle;
  float endingAngle;
  float innerRadius;
}

struct ParentIndex {
  GUID guid;
  string position;
}

struct ConnectorTextMidpoint {
  uint section;
  float offset;
}

struct FontVariation {
  string axisTag;
  float value;
}

struct PluginData {
  string pluginID;
  string key;
  string value;
}

struct ExportConstraint {
  ExportConstraintType type;
  float value;
}

message Image {
  byte[] hash = 1;
  string name = 2;
  ImageType dataType = 3;
}

message Paint {
  PaintType type = 1;
  Color color = 2;
  float opacity = 3;
  bool visible = 4;
  BlendMode blendMode = 5;
  ColorStop[] stops = 6;
  Matrix transform = 7;
  Image image = 8;
  ScaleMode imageScaleMode = 9;
  float rotation = 10;
  float scale = 11;
  bool noImageColorManagement = 12;
}

message Effect {
  EffectType type = 1;
  Color color = 2;
  Vector offset = 3;
  float radius = 4;
  bool visible = 5;
  BlendMode blendMode = 6;
  float spread = 7;
  bool showShadowBehindNode = 8;
}

message ExportSettings {
  string suffix = 1;
  ImageType imageType = 2;
  ExportConstraint constraint = 3;
  bool useAbsoluteBounds = 4;
}

message Path {
  WindingRule windingRule = 1;
  uint commandsBlob = 2;
}

message Guide {
  uint axis = 1;
  float offset = 2;
  GUID guid = 3;
}

message LayoutGrid {
  uint axis = 1;
  float sectionSize = 2;
  bool visible = 3;
  Color color = 4;
  GridPattern pattern = 5;
  uint numSections = 6;
  float offset = 7;
  float gutterSize = 8;
}

message TextData {
  string characters = 1;
  uint[] characterStyleIDs = 2;
  Vector layoutSize = 3;
  uint linesBlob = 4;
}

message SymbolData {
  GUID symbolID = 1;
  float uniformScaleFactor = 2;
  uint dataVersion = 3;
}

message ConnectorEndpoint {
  GUID endpointNodeID = 1;
  Vector position = 2;
  uint magnet = 3;
}

message PrototypeDevice {
  Vector size = 1;
  string presetIdentifier = 2;
  DeviceRotation rotation = 3;
}

message NodeChange {
  GUID guid = 1;
  NodePhase phase = 2;
  ParentIndex parentIndex = 3;
  NodeType type = 4;
  string name = 5;
  bool visible = 6;
  bool locked = 7;
  float opacity = 8;
  BlendMode blendMode = 9;
  Vector size = 10;
  Matrix transform = 11;
  float[] dashPattern = 12;
  bool mask = 13;
  bool maskIsOutline = 14;
  MaskType maskType = 15;
  Color backgroundColor = 16;
  float backgroundOpacity = 17;
  bool backgroundEnabled = 18;
  Paint[] fillPaints = 19;
  Paint[] strokePaints = 20;
  float strokeWeight = 21;
  StrokeAlign strokeAlign = 22;
  StrokeCap strokeCap = 23;
  StrokeJoin strokeJoin = 24;
  float miterLimit = 25;
  Path[] fillGeometry = 26;
  Path[] strokeGeometry = 27;
  float rectangleTopLeftCornerRadius = 28;
  float rectangleTopRightCornerRadius = 29;
  float rectangleBottomLeftCornerRadius = 30;
  float rectangleBottomRightCornerRadius = 31;
  bool rectangleCornerRadiiIndependent = 32;
  float cornerRadius = 33;
  float cornerSmoothing = 34;
  bool proportionsConstrained = 35;
  bool useAbsoluteBounds = 36;
  ConstraintType horizontalConstraint = 37;
  ConstraintType verticalConstraint = 38;
  StackMode stackMode = 39;
  float stackSpacing = 40;
  float stackCounterSpacing = 41;
  float stackHorizontalPadding = 42;
  float stackVerticalPadding = 43;
  float stackPaddingRight = 44;
  float stackPaddingBottom = 45;
  StackSizing stackPrimarySizing = 46;
  StackSizing stackCounterSizing = 47;
  StackAlign stackPrimaryAlignItems = 48;
  StackAlign stackCounterAlignItems = 49;
  float stackChildPrimaryGrow = 50;
  StackAlign stackChildAlignSelf = 51;
  StackPositioning stackPositioning = 52;
  bool stackReverseZIndex = 53;
  float fontSize = 54;
  FontName fontName = 55;
  TextCase textCase = 56;
  TextDecoration textDecoration = 57;
  float letterSpacing = 58;
  float lineHeightValue = 59;
  LineHeightUnit lineHeightUnit = 60;
  float paragraphIndent = 61;
  float paragraphSpacing = 62;
  TextAlignHorizontal textAlignHorizontal = 63;
  TextAlignVertical textAlignVertical = 64;
  TextAutoResize textAutoResize = 65;
  TextData textData = 66;
  float textTracking = 67;
  bool hangingPunctuation = 68;
  bool hangingList = 69;
  int maxLines = 70;
  bool autoRename = 71;
  uint fontVersion = 72;
  uint vectorDataBlob = 73;
  uint vectorNetworkBlob = 74;
  HandleMirroring handleMirroring = 75;
  uint count = 76;
  float starInnerScale = 77;
  ArcData arcData = 78;
  BooleanOperation booleanOperation = 79;
  bool frameMaskDisabled = 80;
  bool resizeToFit = 81;
  bool exportBackgroundDisabled = 82;
  ExportSettings[] exportSettings = 83;
  SymbolData symbolData = 84;
  GUID overriddenSymbolID = 85;
  string symbolDescription = 86;
  uint symbolVersion = 87;
  GUID transitionNodeID = 88;
  float transitionDuration = 89;
  EasingType easingType = 90;
  ScrollDirection scrollDirection = 91;
  Vector scrollOffset = 92;
  OverlayPositionType overlayPositionType = 93;
  OverlayBackgroundInteraction overlayBackgroundInteraction = 94;
  Color overlayBackgroundColor = 95;
  ConnectorEndpoint connectorStart = 96;
  ConnectorEndpoint connectorEnd = 97;
  StrokeCap connectorStartCap = 98;
  StrokeCap connectorEndCap = 99;
  ConnectorLineStyle connectorLineStyle = 100;
  Vector[] connectorControlPoints = 101;
  ConnectorTextMidpoint connectorTextMidpoint = 102;
  ShapeWithTextType shapeWithTextType = 103;
  float shapeUserHeight = 104;
  bool authorVisible = 105;
  string authorName = 106;
  bool sectionContentsHidden = 107;
  PluginData[] pluginData = 108;
  PluginData[] sharedPluginData = 109;
  Guide[] guides = 110;
  LayoutGrid[] layoutGrids = 111;
  bool internalOnly = 112;
  string description = 113;
  string documentationLink = 114;
  bool detachOpticalSizeFromFontSize = 115;
  FontVariation[] fontVariations = 116;
  LeadingTrim leadingTrim = 117;
  uint textUserLayoutVersion = 118;
  bool simplifyInstancePanels = 119;
  bool excludedFromPublishing = 120;
  PrototypeDevice prototypeDevice = 121;
  Color prototypeBackgroundColor = 122;
  GUID prototypeStartNodeID = 123;
  NavigationType navigationType = 124;
  Vector overlayOffset = 125;
  bool exportTextAsSVG = 126;
  uint commandsBlob = 127;
  uint derivedDataBlob = 128;
  byte[] contentHash = 129;
  uint layoutVersion = 130;
  bool hasHadRtlText = 131;
  string widgetID = 132;
  uint widgetVersion = 133;
  byte[] widgetSyncedState = 134;
  uint widgetPropsBlob = 135;
  string codeLanguage = 136;
  string embedURL = 137;
  string embedTitle = 138;
  uint revision = 139;
  uint64 editedAt = 140;
  int64 serverIndex = 141;
  Effect[] effects = 142;
}

message Blob {
  byte[] bytes = 1;
}

message Message {
  MessageType type = 1;
  uint sessionID = 2;
  uint ackID = 3;
  NodeChange[] nodeChanges = 4;
  Blob[] blobs = 5;
  uint pasteID = 6;
  string pasteFileKey = 7;
  bool isCut = 8;
  uint signalName = 9;
}
`

var compiled = sync.OnceValue(func() *kiwi.CompiledSchema {
	cs, err := kiwi.Compile(Text)
	if err != nil {
		panic(fmt.Sprintf("testschema: embedded schema does not compile: %v", err))
	}

	return cs
})

// Compiled returns the shared compiled schema. The first caller pays
// for compilation; later callers get the same instance.
func Compiled() *kiwi.CompiledSchema {
	return compiled()
}

var (
	nodeTypes = []string{
		"FRAME", "RECTANGLE", "TEXT", "ELLIPSE", "VECTOR",
		"INSTANCE", "GROUP", "STAR", "LINE", "SECTION",
	}
	paintTypes = []string{"SOLID", "GRADIENT_LINEAR", "IMAGE", "GRADIENT_RADIAL"}
	blendModes = []string{"NORMAL", "MULTIPLY", "SCREEN", "OVERLAY", "DARKEN"}
	fontStyles = []string{"Regular", "Medium", "Bold", "Italic"}
)

// SampleDocument builds a Message carrying n node changes. The output
// depends only on n.
func SampleDocument(n int) kiwi.Document {
	changes := make([]any, 0, n)
	for i := 0; i < n; i++ {
		changes = append(changes, sampleNodeChange(i))
	}

	blobCount := n/8 + 1

	blobs := make([]any, 0, blobCount)
	for i := 0; i < blobCount; i++ {
		blobs = append(blobs, kiwi.Document{"bytes": sampleBlobBytes(i)})
	}

	return kiwi.Document{
		"type":        "NODE_CHANGES",
		"sessionID":   uint32(7),
		"ackID":       uint32(0),
		"nodeChanges": changes,
		"blobs":       blobs,
		"pasteID":     uint32(1),
	}
}

// sampleNodeChange fills the common fields on every node and rotates
// the heavier groups (text, vector, effects, prototyping) across
// indices so a run of nodes touches most of NodeChange.
func sampleNodeChange(i int) kiwi.Document {
	nc := kiwi.Document{
		"guid":                 guid(uint32(i/64+1), uint32(i)),
		"phase":                "CREATED",
		"parentIndex":          kiwi.Document{"guid": guid(0, uint32(i/16)), "position": fmt.Sprintf("!%03d", i%512)},
		"type":                 nodeTypes[i%len(nodeTypes)],
		"name":                 fmt.Sprintf("node-%04d", i),
		"visible":              true,
		"locked":               i%17 == 0,
		"opacity":              1.0 - float64(i%10)/20.0,
		"blendMode":            blendModes[i%len(blendModes)],
		"size":                 vec(float64(16*(i%32+1)), float64(8*(i%24+1))),
		"transform":            translation(float64(i%200)*4.5, float64(i%120)*3.25),
		"horizontalConstraint": "MIN",
		"verticalConstraint":   "MIN",
		"fillPaints":           []any{samplePaint(i)},
		"revision":             uint32(i + 1),
		"editedAt":             uint64(1700000000000 + int64(i)*977),
		"serverIndex":          int64(i) - 3,
	}

	if i%3 == 0 {
		nc["strokePaints"] = []any{samplePaint(i + 1)}
		nc["strokeWeight"] = float64(i%5) + 0.5
		nc["strokeAlign"] = "INSIDE"
		nc["strokeCap"] = "ROUND"
		nc["strokeJoin"] = "MITER"
		nc["miterLimit"] = 4.0
		nc["dashPattern"] = []any{float64(i%7 + 1), 2.0}
	}

	if i%4 == 0 {
		nc["cornerRadius"] = float64(i % 12)
		nc["cornerSmoothing"] = 0.6
		nc["rectangleCornerRadiiIndependent"] = false
	}

	if i%5 == 0 {
		nc["effects"] = []any{sampleEffect(i)}
	}

	if i%7 == 0 {
		nc["fontSize"] = float64(12 + i%24)
		nc["fontName"] = kiwi.Document{
			"family":     "Inter",
			"style":      fontStyles[i%len(fontStyles)],
			"postscript": "Inter-" + fontStyles[i%len(fontStyles)],
		}
		nc["textAlignHorizontal"] = "LEFT"
		nc["textAlignVertical"] = "TOP"
		nc["textAutoResize"] = "HEIGHT"
		nc["lineHeightValue"] = 120.0
		nc["lineHeightUnit"] = "PERCENT"
		nc["letterSpacing"] = 0.0
		nc["textData"] = kiwi.Document{
			"characters":        fmt.Sprintf("Layer %d copy text", i),
			"characterStyleIDs": []any{uint32(0), uint32(0), uint32(1)},
			"layoutSize":        vec(240, 32),
		}
	}

	if i%9 == 0 {
		nc["vectorDataBlob"] = uint32(i / 9 % 4)
		nc["handleMirroring"] = "NONE"
		nc["fillGeometry"] = []any{
			kiwi.Document{"windingRule": "NONZERO", "commandsBlob": uint32(i / 9 % 4)},
		}
	}

	if i%11 == 0 {
		nc["stackMode"] = "VERTICAL"
		nc["stackSpacing"] = 8.0
		nc["stackHorizontalPadding"] = 16.0
		nc["stackVerticalPadding"] = 16.0
		nc["stackPrimarySizing"] = "RESIZE_TO_FIT"
		nc["stackPrimaryAlignItems"] = "MIN"
		nc["stackCounterAlignItems"] = "CENTER"
	}

	if i%13 == 0 {
		nc["exportSettings"] = []any{
			kiwi.Document{
				"suffix":    "@2x",
				"imageType": "PNG",
				"constraint": kiwi.Document{
					"type":  "CONTENT_SCALE",
					"value": 2.0,
				},
			},
		}
	}

	if i%19 == 0 {
		nc["transitionNodeID"] = guid(uint32(i/64+1), uint32(i+1))
		nc["transitionDuration"] = 300.0
		nc["easingType"] = "OUT_CUBIC"
		nc["navigationType"] = "NAVIGATE"
	}

	if i%23 == 0 {
		nc["pluginData"] = []any{
			kiwi.Document{
				"pluginID": "731627216655469013",
				"key":      "state",
				"value":    fmt.Sprintf(`{"seq":%d}`, i),
			},
		}
	}

	return nc
}

func samplePaint(i int) kiwi.Document {
	p := kiwi.Document{
		"type":      paintTypes[i%len(paintTypes)],
		"opacity":   1.0,
		"visible":   true,
		"blendMode": "NORMAL",
	}

	switch p["type"] {
	case "SOLID":
		p["color"] = rgba(float64(i%256)/255.0, 0.5, 0.25, 1.0)
	case "GRADIENT_LINEAR", "GRADIENT_RADIAL":
		p["stops"] = []any{
			kiwi.Document{"color": rgba(0, 0, 0, 1), "position": 0.0},
			kiwi.Document{"color": rgba(1, 1, 1, 1), "position": 1.0},
		}
		p["transform"] = translation(0, 0)
	case "IMAGE":
		p["image"] = kiwi.Document{
			"hash":     sampleBlobBytes(i % 4),
			"name":     fmt.Sprintf("image-%d", i%4),
			"dataType": "PNG",
		}
		p["imageScaleMode"] = "FILL"
	}

	return p
}

func sampleEffect(i int) kiwi.Document {
	return kiwi.Document{
		"type":    "DROP_SHADOW",
		"color":   rgba(0, 0, 0, 0.25),
		"offset":  vec(0, float64(i%4+1)),
		"radius":  float64(2 * (i%4 + 1)),
		"visible": true,
		"spread":  0.0,
	}
}

func sampleBlobBytes(i int) []byte {
	b := make([]byte, 64+i*16)
	for j := range b {
		b[j] = byte((j*31 + i*7) % 251)
	}

	return b
}

func guid(session, local uint32) kiwi.Document {
	return kiwi.Document{"sessionID": session, "localID": local}
}

func vec(x, y float64) kiwi.Document {
	return kiwi.Document{"x": x, "y": y}
}

func rgba(r, g, b, a float64) kiwi.Document {
	return kiwi.Document{"r": r, "g": g, "b": b, "a": a}
}

func translation(x, y float64) kiwi.Document {
	return kiwi.Document{
		"m00": 1.0, "m01": 0.0, "m02": x,
		"m10": 0.0, "m11": 1.0, "m12": y,
	}
}
