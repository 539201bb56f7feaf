// Copyright (c) Elliot Nunn
// Licensed under the MIT license

package codec

var (
	maceTab1 = [8]int{-13, 8, 76, 222, 222, 76, 8, -13}
	maceTab3 = [4]int{-18, 140, 140, -18}
)

// Quantiser steps, 128 rows selected by the channel's step index.
// Only the positive half is stored; readTable mirrors it.
var maceTab2 = [128 * 4]int16{
	37, 116, 206, 330, 39, 121, 216, 346,
	41, 127, 225, 361, 42, 132, 235, 377,
	44, 137, 245, 392, 46, 144, 256, 410,
	48, 150, 267, 428, 51, 157, 280, 448,
	53, 165, 292, 468, 55, 172, 306, 490,
	58, 179, 319, 511, 60, 187, 333, 534,
	63, 195, 348, 557, 66, 205, 364, 583,
	69, 214, 380, 609, 72, 223, 396, 635,
	75, 233, 414, 663, 79, 244, 433, 694,
	82, 254, 453, 725, 86, 265, 472, 756,
	90, 278, 495, 792, 94, 290, 516, 826,
	98, 303, 539, 863, 102, 317, 563, 902,
	107, 331, 588, 942, 112, 345, 614, 983,
	117, 361, 641, 1027, 122, 377, 670, 1073,
	127, 394, 701, 1121, 133, 411, 732, 1171,
	139, 430, 764, 1223, 145, 449, 799, 1278,
	152, 469, 835, 1335, 158, 490, 871, 1395,
	165, 512, 910, 1457, 173, 535, 951, 1522,
	181, 558, 993, 1590, 189, 583, 1037, 1661,
	197, 609, 1084, 1735, 206, 636, 1132, 1813,
	215, 665, 1182, 1893, 225, 695, 1235, 1978,
	235, 726, 1290, 2066, 245, 758, 1348, 2158,
	256, 792, 1408, 2255, 268, 827, 1471, 2355,
	280, 864, 1536, 2460, 292, 903, 1605, 2570,
	305, 943, 1676, 2685, 319, 985, 1751, 2804,
	333, 1029, 1829, 2929, 348, 1075, 1910, 3060,
	364, 1123, 1996, 3197, 380, 1173, 2085, 3339,
	397, 1225, 2178, 3488, 414, 1280, 2275, 3644,
	433, 1337, 2376, 3806, 452, 1397, 2482, 3976,
	472, 1459, 2593, 4153, 493, 1524, 2708, 4338,
	515, 1592, 2829, 4532, 538, 1663, 2955, 4734,
	562, 1737, 3087, 4945, 587, 1814, 3224, 5165,
	613, 1895, 3368, 5395, 641, 1980, 3518, 5636,
	669, 2068, 3675, 5887, 699, 2160, 3839, 6149,
	730, 2256, 4010, 6423, 763, 2357, 4189, 6710,
	797, 2462, 4375, 7009, 832, 2572, 4570, 7321,
	869, 2686, 4774, 7647, 908, 2806, 4987, 7988,
	948, 2931, 5209, 8344, 990, 3062, 5441, 8716,
	1034, 3198, 5684, 9104, 1081, 3341, 5937, 9510,
	1129, 3490, 6202, 9934, 1179, 3645, 6478, 10377,
	1232, 3808, 6767, 10839, 1287, 3977, 7069, 11322,
	1344, 4155, 7384, 11827, 1404, 4340, 7713, 12354,
	1467, 4534, 8057, 12904, 1532, 4736, 8416, 13479,
	1600, 4947, 8791, 14080, 1672, 5167, 9183, 14708,
	1746, 5398, 9592, 15363, 1824, 5638, 10020, 16048,
	1905, 5890, 10466, 16763, 1990, 6152, 10933, 17510,
	2079, 6426, 11420, 18290, 2172, 6713, 11929, 19105,
	2269, 7012, 12461, 19956, 2370, 7325, 13016, 20845,
	2476, 7651, 13596, 21774, 2586, 7992, 14202, 22744,
	2701, 8348, 14834, 23757, 2821, 8720, 15495, 24815,
	2947, 9108, 16186, 25921, 3078, 9514, 16907, 27076,
	3215, 9938, 17660, 28282, 3359, 10381, 18447, 29542,
	3508, 10843, 19269, 30858, 3665, 11326, 20127, 32232,
	3828, 11831, 21024, 32767, 3999, 12358, 21961, 32767,
	4177, 12908, 22939, 32767, 4363, 13483, 23960, 32767,
	4558, 14084, 25028, 32767, 4761, 14711, 26143, 32767,
	4973, 15366, 27307, 32767, 5194, 16051, 28524, 32767,
	5426, 16766, 29794, 32767, 5667, 17513, 31122, 32767,
	5920, 18293, 32508, 32767, 6184, 19108, 32767, 32767,
	6459, 19959, 32767, 32767, 6747, 20848, 32767, 32767,
	7049, 21780, 32767, 32767, 7363, 22752, 32767, 32767,
	7692, 23768, 32767, 32767, 8035, 24828, 32767, 32767,
	8394, 25935, 32767, 32767, 8768, 27092, 32767, 32767,
	9159, 28300, 32767, 32767, 9568, 29563, 32767, 32767,
}

var maceTab4 = [128 * 2]int16{
	64, 216, 67, 226, 70, 236, 74, 246,
	77, 257, 80, 268, 84, 280, 88, 294,
	92, 307, 96, 321, 100, 334, 104, 350,
	109, 365, 114, 382, 119, 399, 124, 416,
	130, 434, 136, 454, 142, 475, 148, 495,
	155, 519, 162, 541, 169, 564, 176, 590,
	185, 617, 193, 644, 201, 673, 210, 703,
	220, 735, 230, 767, 240, 801, 251, 838,
	262, 876, 274, 914, 286, 955, 299, 997,
	312, 1041, 326, 1089, 341, 1138, 356, 1188,
	372, 1241, 388, 1297, 406, 1355, 424, 1415,
	443, 1478, 462, 1544, 483, 1613, 505, 1684,
	527, 1760, 551, 1838, 576, 1921, 601, 2007,
	628, 2097, 656, 2190, 686, 2288, 716, 2390,
	748, 2497, 781, 2608, 816, 2724, 853, 2846,
	891, 2973, 930, 3106, 972, 3245, 1016, 3390,
	1061, 3541, 1108, 3698, 1158, 3864, 1209, 4037,
	1264, 4217, 1320, 4405, 1379, 4602, 1441, 4807,
	1505, 5022, 1572, 5246, 1642, 5480, 1715, 5725,
	1792, 5981, 1872, 6248, 1955, 6527, 2043, 6818,
	2134, 7123, 2229, 7441, 2329, 7773, 2433, 8120,
	2541, 8483, 2655, 8862, 2773, 9257, 2897, 9670,
	3026, 10102, 3162, 10552, 3303, 11024, 3450, 11516,
	3604, 12030, 3765, 12567, 3933, 13129, 4108, 13715,
	4292, 14327, 4483, 14967, 4683, 15635, 4892, 16333,
	5111, 17062, 5339, 17824, 5577, 18620, 5826, 19451,
	6086, 20320, 6358, 21227, 6642, 22175, 6938, 23165,
	7248, 24199, 7571, 25280, 7909, 26408, 8262, 27587,
	8631, 28819, 9016, 30106, 9419, 31450, 9839, 32767,
	10278, 32767, 10737, 32767, 11216, 32767, 11717, 32767,
	12240, 32767, 12786, 32767, 13356, 32767, 13953, 32767,
	14576, 32767, 15226, 32767, 15906, 32767, 16615, 32767,
}
